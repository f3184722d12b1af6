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

// FrameRange is a half-open [Start, End) run of frame numbers handled by
// one segment worker.
type FrameRange struct {
	Start int
	End   int
}

// PartitionFrames splits totalFrames into numSegments contiguous ranges of
// equal size. The last range absorbs the division remainder so the ranges
// tile the video exactly.
func PartitionFrames(totalFrames, numSegments int) []FrameRange {
	if numSegments <= 0 || totalFrames <= 0 {
		return nil
	}
	if numSegments > totalFrames {
		numSegments = totalFrames
	}
	step := totalFrames / numSegments
	ranges := make([]FrameRange, numSegments)
	for i := 0; i < numSegments; i++ {
		start := i * step
		end := start + step
		if i == numSegments-1 {
			end = totalFrames
		}
		ranges[i] = FrameRange{Start: start, End: end}
	}
	return ranges
}
