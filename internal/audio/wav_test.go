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

package audio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVRoundTrip(t *testing.T) {
	in := []float64{0.0, 0.5, -0.5, 1.0, -1.0, 0.25}
	path := filepath.Join(t.TempDir(), "tone.wav")

	require.NoError(t, WriteWAVMono(path, in, 16000))

	out, rate, err := ReadWAVMono(path)
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)
	require.Len(t, out, len(in))
	for i := range in {
		assert.InDelta(t, in[i], out[i], 1.0/16384, "sample %d", i)
	}
}

func TestWriteWAVMonoClipsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hot.wav")
	require.NoError(t, WriteWAVMono(path, []float64{2.0, -3.0}, 8000))

	out, _, err := ReadWAVMono(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 1.0, out[0], 1.0/16384)
	assert.InDelta(t, -1.0, out[1], 1.0/16384)
}

func TestReadWAVMonoMissingFile(t *testing.T) {
	_, _, err := ReadWAVMono(filepath.Join(t.TempDir(), "absent.wav"))
	assert.Error(t, err)
}
