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

func TestVoiceGainDB(t *testing.T) {
	p := DefaultDuckingPolicy()

	// Speech at -30 dBFS: offset puts the duck at 5 dB, but the floor wins.
	assert.InDelta(t, -15.0, p.VoiceGainDB(-30), 1e-9)
	// Loud speech at -10 dBFS ducks by the full offset-derived 25 dB.
	assert.InDelta(t, -25.0, p.VoiceGainDB(-10), 1e-9)
}

func TestPlanSegmentsGapPolicy(t *testing.T) {
	p := DefaultDuckingPolicy()
	rate := 1000
	voice := test.Sine(220, 0.3, 10, rate)
	regions := []model.VoiceRegion{
		{Start: 0, End: 2},
		{Start: 3, End: 4},   // 1s gap: short, carries the previous duck.
		{Start: 6.5, End: 8}, // 2.5s gap: long, gets the silence gain.
	}
	segments := planSegments(10*rate, rate, voice, rate, regions, p)
	require.Len(t, segments, 6)

	// Short gap between regions 1 and 2 reuses the previous voice gain.
	shortGap := segments[1]
	assert.Equal(t, segments[0].gainDB, shortGap.gainDB)

	// Long gap between regions 2 and 3 falls back to the silence gain.
	longGap := segments[3]
	assert.Equal(t, p.SilenceGainDB, longGap.gainDB)

	// After the last region the tail gain applies.
	tail := segments[5]
	assert.Equal(t, p.TailGainDB, tail.gainDB)
	assert.Equal(t, 10*rate, tail.end)
}

func TestPlanSegmentsNoSpeech(t *testing.T) {
	p := DefaultDuckingPolicy()
	rate := 1000
	segments := planSegments(5*rate, rate, nil, rate, nil, p)
	require.Len(t, segments, 1)
	assert.Equal(t, p.SilenceGainDB, segments[0].gainDB)
	assert.Equal(t, 0, segments[0].start)
	assert.Equal(t, 5*rate, segments[0].end)
}

func TestDuckMusicLeavesLengthIntact(t *testing.T) {
	p := DefaultDuckingPolicy()
	rate := 8000
	music := test.Sine(440, 0.8, 4, rate)
	voice := test.Sine(220, 0.3, 4, rate)
	regions := []model.VoiceRegion{{Start: 1, End: 2}}

	before := len(music)
	DuckMusic(music, rate, voice, rate, regions, p)
	assert.Len(t, music, before)

	// The ducked span must be materially quieter than the untouched start.
	intro := RMSdBFS(music[:rate/2])
	ducked := RMSdBFS(music[rate+rate/2 : 2*rate-rate/4])
	assert.Less(t, ducked, intro-5)
}

func TestDuckMusicEmpty(t *testing.T) {
	assert.NotPanics(t, func() {
		DuckMusic(nil, 8000, nil, 8000, nil, DefaultDuckingPolicy())
	})
}
