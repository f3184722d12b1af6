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

// This file implements the pixelation effect. A face box is shrunk to 7%
// of its size and blown back up with nearest-neighbor sampling, which turns
// the region into coarse blocks that cannot be inverted.
package vision

import (
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/storycut/edit-service/internal/media"
)

// MosaicScale is the downsample factor of the pixelation: each box is
// reduced to this fraction of its dimensions before being scaled back up.
const MosaicScale = 0.07

// MosaicFace pixelates one box of a bgr24 frame in place. The box is
// clamped to the frame; empty boxes after clamping are a no-op.
func MosaicFace(frame *media.Frame, box Box) {
	x1, y1, x2, y2 := box[0], box[1], box[2], box[3]
	x1, x2 = max(0, x1), min(frame.Width-1, x2)
	y1, y2 = max(0, y1), min(frame.Height-1, y2)
	if x2 <= x1 || y2 <= y1 {
		return
	}
	w, h := x2-x1, y2-y1
	smallW := max(1, int(float64(w)*MosaicScale))
	smallH := max(1, int(float64(h)*MosaicScale))

	region := regionToRGBA(frame, x1, y1, w, h)
	small := image.NewRGBA(image.Rect(0, 0, smallW, smallH))
	xdraw.NearestNeighbor.Scale(small, small.Bounds(), region, region.Bounds(), xdraw.Src, nil)
	xdraw.NearestNeighbor.Scale(region, region.Bounds(), small, small.Bounds(), xdraw.Src, nil)
	rgbaToRegion(frame, region, x1, y1, w, h)
}

// regionToRGBA copies a bgr24 sub-rectangle into an RGBA image the scaler
// can work with.
func regionToRGBA(frame *media.Frame, x, y, w, h int) *image.RGBA {
	region := image.NewRGBA(image.Rect(0, 0, w, h))
	for row := 0; row < h; row++ {
		src := ((y+row)*frame.Width + x) * 3
		dst := row * region.Stride
		for col := 0; col < w; col++ {
			region.Pix[dst+0] = frame.Data[src+2] // R
			region.Pix[dst+1] = frame.Data[src+1] // G
			region.Pix[dst+2] = frame.Data[src+0] // B
			region.Pix[dst+3] = 0xff
			src += 3
			dst += 4
		}
	}
	return region
}

// rgbaToRegion writes an RGBA image back into the bgr24 frame.
func rgbaToRegion(frame *media.Frame, region *image.RGBA, x, y, w, h int) {
	for row := 0; row < h; row++ {
		dst := ((y+row)*frame.Width + x) * 3
		src := row * region.Stride
		for col := 0; col < w; col++ {
			frame.Data[dst+0] = region.Pix[src+2] // B
			frame.Data[dst+1] = region.Pix[src+1] // G
			frame.Data[dst+2] = region.Pix[src+0] // R
			dst += 3
			src += 4
		}
	}
}
