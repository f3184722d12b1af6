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

// This file holds the gain and envelope primitives shared by the music
// assembly and ducking steps.
package audio

import "math"

// SilenceFloorDB is the dBFS value reported for digital silence, standing
// in for negative infinity.
const SilenceFloorDB = -100.0

// RMSdBFS measures the level of a block of samples in dBFS. Empty or silent
// input reports SilenceFloorDB.
func RMSdBFS(samples []float64) float64 {
	if len(samples) == 0 {
		return SilenceFloorDB
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms <= 0 {
		return SilenceFloorDB
	}
	db := 20 * math.Log10(rms)
	if db < SilenceFloorDB {
		return SilenceFloorDB
	}
	return db
}

// PeakNormalize scales samples in place so the absolute peak lands at
// target (0 < target <= 1). Silence is returned untouched.
func PeakNormalize(samples []float64, target float64) {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	gain := target / peak
	for i := range samples {
		samples[i] *= gain
	}
}

// ApplyGainDB applies a flat gain, in decibels, to the slice in place.
func ApplyGainDB(samples []float64, db float64) {
	gain := math.Pow(10, db/20)
	for i := range samples {
		samples[i] *= gain
	}
}

// FadeIn applies a linear ramp from 0 to 1 over the first n samples.
func FadeIn(samples []float64, n int) {
	if n > len(samples) {
		n = len(samples)
	}
	for i := 0; i < n; i++ {
		samples[i] *= float64(i) / float64(n)
	}
}

// FadeOut applies a linear ramp from 1 to 0 over the last n samples.
func FadeOut(samples []float64, n int) {
	if n > len(samples) {
		n = len(samples)
	}
	offset := len(samples) - n
	for i := 0; i < n; i++ {
		samples[offset+i] *= float64(n-i) / float64(n)
	}
}

// Crossfade joins two clips with an overlapping linear blend of n samples.
// The result is len(a)+len(b)-n samples; if either clip is shorter than the
// overlap, the clips are simply concatenated.
func Crossfade(a, b []float64, n int) []float64 {
	if n <= 0 || len(a) < n || len(b) < n {
		return append(append([]float64{}, a...), b...)
	}
	out := make([]float64, len(a)+len(b)-n)
	copy(out, a[:len(a)-n])
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		out[len(a)-n+i] = a[len(a)-n+i]*(1-t) + b[i]*t
	}
	copy(out[len(a):], b[n:])
	return out
}

// TileToLength repeats the clip with crossfaded joins until it covers at
// least total samples, then trims to exactly total.
func TileToLength(clip []float64, total, crossfadeSamples int) []float64 {
	if len(clip) == 0 {
		return make([]float64, total)
	}
	out := append([]float64{}, clip...)
	for len(out) < total {
		out = Crossfade(out, clip, crossfadeSamples)
	}
	return out[:total]
}
