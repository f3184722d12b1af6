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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRMSdBFS(t *testing.T) {
	// A full-scale square wave has an RMS of 1.0, which is 0 dBFS.
	square := []float64{1, -1, 1, -1, 1, -1}
	assert.InDelta(t, 0.0, RMSdBFS(square), 1e-9)

	// Halving the amplitude drops the level by ~6.02 dB.
	half := []float64{0.5, -0.5, 0.5, -0.5}
	assert.InDelta(t, -6.0206, RMSdBFS(half), 1e-3)

	assert.Equal(t, SilenceFloorDB, RMSdBFS(nil))
	assert.Equal(t, SilenceFloorDB, RMSdBFS(make([]float64, 100)))
}

func TestPeakNormalize(t *testing.T) {
	samples := []float64{0.1, -0.5, 0.25}
	PeakNormalize(samples, 0.95)
	assert.InDelta(t, -0.95, samples[1], 1e-9)
	assert.InDelta(t, 0.19, samples[0], 1e-9)

	// Silence must stay silence rather than blowing up on a zero peak.
	silent := make([]float64, 10)
	PeakNormalize(silent, 0.95)
	for _, s := range silent {
		assert.Zero(t, s)
	}
}

func TestApplyGainDB(t *testing.T) {
	samples := []float64{1, -1}
	ApplyGainDB(samples, -20)
	assert.InDelta(t, 0.1, samples[0], 1e-9)
	assert.InDelta(t, -0.1, samples[1], 1e-9)
}

func TestFades(t *testing.T) {
	in := []float64{1, 1, 1, 1}
	FadeIn(in, 4)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75}, in)

	out := []float64{1, 1, 1, 1}
	FadeOut(out, 4)
	assert.Equal(t, []float64{1, 0.75, 0.5, 0.25}, out)

	// Fade lengths longer than the clip clamp instead of panicking.
	short := []float64{1, 1}
	FadeIn(short, 10)
	assert.Len(t, short, 2)
}

func TestCrossfade(t *testing.T) {
	a := []float64{1, 1, 1, 1}
	b := []float64{0, 0, 0, 0}
	out := Crossfade(a, b, 2)
	assert.Len(t, out, 6)
	// The overlap blends linearly from a into b.
	assert.Equal(t, 1.0, out[1])
	assert.Equal(t, 1.0, out[2]) // t=0: all a
	assert.InDelta(t, 0.5, out[3], 1e-9)
	assert.Zero(t, out[4])

	// Clips shorter than the overlap concatenate.
	out = Crossfade([]float64{1}, []float64{2}, 4)
	assert.Equal(t, []float64{1, 2}, out)
}

func TestTileToLength(t *testing.T) {
	clip := []float64{0.5, 0.5, 0.5, 0.5}
	out := TileToLength(clip, 10, 1)
	assert.Len(t, out, 10)

	// An empty clip yields silence of the requested length.
	out = TileToLength(nil, 5, 1)
	assert.Len(t, out, 5)
	for _, s := range out {
		assert.Zero(t, s)
	}

	// Already long enough: trimmed, not extended.
	long := make([]float64, 20)
	for i := range long {
		long[i] = math.Sin(float64(i))
	}
	out = TileToLength(long, 8, 2)
	assert.Equal(t, long[:8], out)
}
