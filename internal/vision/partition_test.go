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
	"github.com/stretchr/testify/require"
)

func TestPartitionFramesTilesExactly(t *testing.T) {
	parts := PartitionFrames(300, 3)
	require.Len(t, parts, 3)
	assert.Equal(t, FrameRange{Start: 0, End: 100}, parts[0])
	assert.Equal(t, FrameRange{Start: 100, End: 200}, parts[1])
	assert.Equal(t, FrameRange{Start: 200, End: 300}, parts[2])
}

func TestPartitionFramesRemainderGoesToLast(t *testing.T) {
	parts := PartitionFrames(100, 3)
	require.Len(t, parts, 3)
	// The last segment absorbs the rounding remainder so no frame is lost.
	assert.Equal(t, 100, parts[2].End)
	assert.Equal(t, parts[0].End, parts[1].Start)
	assert.Equal(t, parts[1].End, parts[2].Start)
}

func TestPartitionFramesDegenerate(t *testing.T) {
	assert.Nil(t, PartitionFrames(0, 3))
	assert.Nil(t, PartitionFrames(-1, 3))
	assert.Nil(t, PartitionFrames(10, 0))

	// More segments than frames clamps to one range per frame.
	parts := PartitionFrames(2, 5)
	require.Len(t, parts, 2)
	assert.Equal(t, FrameRange{Start: 0, End: 1}, parts[0])
	assert.Equal(t, FrameRange{Start: 1, End: 2}, parts[1])
}
