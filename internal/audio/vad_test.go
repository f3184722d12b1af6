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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storycut/edit-service/internal/core/model"
	test "github.com/storycut/edit-service/internal/testutil"
)

const testRate = 16000

func TestDetectVoiceFindsSpokenRegion(t *testing.T) {
	// 1s silence, 1s loud tone, 1s silence.
	samples := test.Silence(1, testRate)
	samples = append(samples, test.Sine(220, 0.5, 1, testRate)...)
	samples = append(samples, test.Silence(1, testRate)...)

	regions := DetectVoice(samples, testRate, 3)
	require.Len(t, regions, 1)
	assert.InDelta(t, 1.0, regions[0].Start, 0.05)
	assert.InDelta(t, 2.0, regions[0].End, 0.05)
}

func TestDetectVoiceSilence(t *testing.T) {
	assert.Nil(t, DetectVoice(test.Silence(3, testRate), testRate, 3))
	assert.Nil(t, DetectVoice(nil, testRate, 3))
}

func TestDetectVoiceAggressivenessClamped(t *testing.T) {
	// A quiet tone at -40 dBFS (amplitude 0.01414 RMS 0.01) is voice at
	// aggressiveness 0 (threshold -45) but not at 3 (threshold -30).
	quiet := test.Sine(220, 0.0141, 2, testRate)
	assert.NotEmpty(t, DetectVoice(quiet, testRate, 0))
	assert.Empty(t, DetectVoice(quiet, testRate, 3))

	// Out-of-range values clamp instead of panicking.
	assert.NotEmpty(t, DetectVoice(quiet, testRate, -5))
	assert.Empty(t, DetectVoice(quiet, testRate, 99))
}

func TestMergeRegions(t *testing.T) {
	regions := []model.VoiceRegion{
		{Start: 0.0, End: 1.0},
		{Start: 1.1, End: 2.0}, // 0.1s gap: merged into the first.
		{Start: 3.0, End: 3.2}, // isolated 0.2s blip: dropped.
		{Start: 5.0, End: 6.0},
	}
	merged := MergeRegions(regions, MergeGapSeconds, MinRegionSeconds)
	require.Len(t, merged, 2)
	assert.Equal(t, model.VoiceRegion{Start: 0.0, End: 2.0}, merged[0])
	assert.Equal(t, model.VoiceRegion{Start: 5.0, End: 6.0}, merged[1])
}

func TestMergeRegionsEmpty(t *testing.T) {
	assert.Nil(t, MergeRegions(nil, MergeGapSeconds, MinRegionSeconds))
	// Everything dropped returns nil, not an empty non-nil slice.
	assert.Nil(t, MergeRegions([]model.VoiceRegion{{Start: 0, End: 0.1}}, 0.2, 0.4))
}
