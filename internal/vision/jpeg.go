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
	"bytes"
	"image/jpeg"

	"github.com/storycut/edit-service/internal/media"
)

// FrameJPEGQuality trades detection accuracy against upload size for the
// frames sent to the face capability.
const FrameJPEGQuality = 85

// FrameToJPEG encodes a full bgr24 frame as JPEG for inline face analysis.
func FrameToJPEG(frame *media.Frame) ([]byte, error) {
	img := regionToRGBA(frame, 0, 0, frame.Width, frame.Height)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: FrameJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
