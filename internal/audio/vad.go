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

// This file implements energy-based voice activity detection. The detector
// walks the track in 30ms frames, marks frames whose level clears an
// aggressiveness-dependent threshold, and coalesces marked frames into
// speech regions.
package audio

import (
	"github.com/storycut/edit-service/internal/core/model"
)

// Frame length of the detector. 30ms matches common telephony VADs and
// gives ~33 decisions per second.
const vadFrameMillis = 30

// Post-processing policy for detected regions.
const (
	// MergeGapSeconds joins speech regions separated by less than this.
	MergeGapSeconds = 0.2
	// MinRegionSeconds drops isolated blips shorter than this.
	MinRegionSeconds = 0.4
)

// vadThresholdsDB maps aggressiveness (0..3) to the dBFS a frame must clear,
// relative to the track's overall level, to count as speech. Higher
// aggressiveness demands louder frames, marking less audio as voice.
var vadThresholdsDB = [4]float64{-45, -40, -35, -30}

// DetectVoice returns the speech regions of a mono track. Aggressiveness
// follows the 0 (permissive) to 3 (strict) convention; out-of-range values
// are clamped.
func DetectVoice(samples []float64, sampleRate int, aggressiveness int) []model.VoiceRegion {
	if aggressiveness < 0 {
		aggressiveness = 0
	} else if aggressiveness > 3 {
		aggressiveness = 3
	}
	threshold := vadThresholdsDB[aggressiveness]

	frameLen := sampleRate * vadFrameMillis / 1000
	if frameLen == 0 || len(samples) == 0 {
		return nil
	}

	var regions []model.VoiceRegion
	var open bool
	var start float64
	for offset := 0; offset < len(samples); offset += frameLen {
		end := offset + frameLen
		if end > len(samples) {
			end = len(samples)
		}
		t := float64(offset) / float64(sampleRate)
		voiced := RMSdBFS(samples[offset:end]) > threshold
		switch {
		case voiced && !open:
			open = true
			start = t
		case !voiced && open:
			open = false
			regions = append(regions, model.VoiceRegion{Start: start, End: t})
		}
	}
	if open {
		regions = append(regions, model.VoiceRegion{Start: start, End: float64(len(samples)) / float64(sampleRate)})
	}
	return MergeRegions(regions, MergeGapSeconds, MinRegionSeconds)
}

// MergeRegions joins regions separated by gaps smaller than mergeGap, then
// drops merged regions shorter than minDuration.
func MergeRegions(regions []model.VoiceRegion, mergeGap, minDuration float64) []model.VoiceRegion {
	if len(regions) == 0 {
		return nil
	}
	merged := []model.VoiceRegion{regions[0]}
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if r.Start-last.End < mergeGap {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	kept := merged[:0]
	for _, r := range merged {
		if r.Duration() >= minDuration {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
