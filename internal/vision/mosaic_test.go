// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storycut/edit-service/internal/media"
)

// checkerFrame builds a frame with a high-frequency checker pattern, the
// worst case for pixelation to smooth out.
func checkerFrame(w, h int) *media.Frame {
	data := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			i := (y*w + x) * 3
			data[i], data[i+1], data[i+2] = v, v, v
		}
	}
	return &media.Frame{Width: w, Height: h, Data: data}
}

func TestMosaicFaceFlattensRegion(t *testing.T) {
	frame := checkerFrame(64, 64)
	original := append([]byte(nil), frame.Data...)

	MosaicFace(frame, Box{8, 8, 40, 40})

	changed := false
	for i, b := range frame.Data {
		if b != original[i] {
			changed = true
			break
		}
	}
	assert.True(t, changed, "mosaic must alter the boxed region")

	// Pixels outside the box stay untouched.
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if x >= 8 && x < 40 && y >= 8 && y < 40 {
				continue
			}
			i := (y*64 + x) * 3
			assert.Equal(t, original[i], frame.Data[i], "pixel (%d,%d) outside box changed", x, y)
		}
	}
}

func TestMosaicFaceClampsBox(t *testing.T) {
	frame := checkerFrame(32, 32)
	assert.NotPanics(t, func() {
		MosaicFace(frame, Box{-10, -10, 100, 100})
		MosaicFace(frame, Box{40, 40, 50, 50}) // fully outside: no-op
		MosaicFace(frame, Box{10, 10, 10, 10}) // empty after clamp
	})
}
