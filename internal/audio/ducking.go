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

// This file implements the gain automation that rides background music
// under speech. The planner translates detected voice regions into a
// per-sample gain envelope over the music timeline: deep cuts while someone
// is speaking, a moderate cut through long silences, and a short fade at
// every transition.
package audio

import (
	"math"

	"github.com/storycut/edit-service/internal/core/model"
)

// DuckingPolicy is the tunable policy of the gain planner. GapCarryover
// keeps the previous speech-ducked level through silences shorter than
// GapThresholdSeconds instead of restoring full volume, which avoids
// audible pumping between close speech regions.
type DuckingPolicy struct {
	GapThresholdSeconds float64
	GapCarryover        bool
	SilenceGainDB       float64
	TailGainDB          float64
	VoiceFloorDB        float64
	VoiceOffsetDB       float64
	MakeupGainDB        float64
	FadeMillis          int
}

// DefaultDuckingPolicy returns the tuning the pipeline ships with.
func DefaultDuckingPolicy() DuckingPolicy {
	return DuckingPolicy{
		GapThresholdSeconds: 2.0,
		GapCarryover:        true,
		SilenceGainDB:       -10,
		TailGainDB:          -5,
		VoiceFloorDB:        15,
		VoiceOffsetDB:       35,
		MakeupGainDB:        5,
		FadeMillis:          300,
	}
}

// gainSegment is one constant-gain span of the music timeline, in samples.
type gainSegment struct {
	start  int
	end    int
	gainDB float64
}

// VoiceGainDB computes the music gain to apply while a voice chunk at the
// given level is speaking: the duck depth is the chunk's dBFS plus
// VoiceOffsetDB, never shallower than VoiceFloorDB. A chunk at -30 dBFS
// with the default offset ducks the music by 15 dB; louder speech ducks
// deeper.
func (p DuckingPolicy) VoiceGainDB(voiceDBFS float64) float64 {
	return -math.Max(p.VoiceFloorDB, voiceDBFS+p.VoiceOffsetDB)
}

// DuckMusic shapes the music track, in place, around the given voice
// regions. The voice samples are consulted per region to scale the duck to
// how loud the speech actually is. After shaping, the track is peak
// normalized and the makeup gain applied.
func DuckMusic(music []float64, musicRate int, voice []float64, voiceRate int, regions []model.VoiceRegion, p DuckingPolicy) {
	if len(music) == 0 {
		return
	}
	segments := planSegments(len(music), musicRate, voice, voiceRate, regions, p)
	applyEnvelope(music, segments, musicRate*p.FadeMillis/1000)
	PeakNormalize(music, 0.95)
	ApplyGainDB(music, p.MakeupGainDB)
}

// planSegments lays alternating gap and voice segments over the music
// timeline.
func planSegments(totalSamples, musicRate int, voice []float64, voiceRate int, regions []model.VoiceRegion, p DuckingPolicy) []gainSegment {
	var segments []gainSegment
	cursor := 0.0
	prevGain := 0.0
	haveSpoken := false

	toMusic := func(t float64) int {
		s := int(t * float64(musicRate))
		if s > totalSamples {
			s = totalSamples
		}
		return s
	}

	for _, region := range regions {
		if region.Start > cursor {
			gain := p.SilenceGainDB
			gap := region.Start - cursor
			if haveSpoken && p.GapCarryover && gap <= p.GapThresholdSeconds {
				gain = prevGain
			}
			segments = append(segments, gainSegment{toMusic(cursor), toMusic(region.Start), gain})
		}

		voiceStart := int(region.Start * float64(voiceRate))
		voiceEnd := int(region.End * float64(voiceRate))
		if voiceEnd > len(voice) {
			voiceEnd = len(voice)
		}
		var level float64 = SilenceFloorDB
		if voiceStart < voiceEnd {
			level = RMSdBFS(voice[voiceStart:voiceEnd])
		}
		gain := p.VoiceGainDB(level)
		segments = append(segments, gainSegment{toMusic(region.Start), toMusic(region.End), gain})
		prevGain = gain
		haveSpoken = true
		cursor = region.End
	}

	tailStart := toMusic(cursor)
	if tailStart < totalSamples {
		gain := p.TailGainDB
		if !haveSpoken {
			// No speech at all: leave the full track at silence-gap level.
			gain = p.SilenceGainDB
		}
		segments = append(segments, gainSegment{tailStart, totalSamples, gain})
	}
	return segments
}

// applyEnvelope multiplies the planned gains into the samples, easing into
// each segment's gain over fadeSamples so transitions never click.
func applyEnvelope(samples []float64, segments []gainSegment, fadeSamples int) {
	prevLinear := 1.0
	for _, seg := range segments {
		linear := math.Pow(10, seg.gainDB/20)
		fade := fadeSamples
		if fade > seg.end-seg.start {
			fade = seg.end - seg.start
		}
		for i := seg.start; i < seg.end; i++ {
			g := linear
			if i-seg.start < fade {
				t := float64(i-seg.start) / float64(fade)
				g = prevLinear*(1-t) + linear*t
			}
			samples[i] *= g
		}
		prevLinear = linear
	}
}
