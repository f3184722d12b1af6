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

// Package model defines the core data structures of the edit service. This
// file holds the time-axis types shared between pipeline stages: classified
// action windows, retained time ranges, speech regions, and transcript
// segments.
package model

import "sort"

// ActionScore is one (label, confidence) pair from the action classifier.
type ActionScore struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ActionWindow is a fixed-duration interval of the video with the ranked
// actions classified inside it. Windows tile the full duration without gaps
// or overlaps; only the final window may be shorter.
type ActionWindow struct {
	Start   float64       `json:"start"` // Seconds from the beginning of the video.
	End     float64       `json:"end"`
	Actions []ActionScore `json:"actions"`
}

// TopAction returns the window's highest-confidence action, or a zero score
// when the classifier produced nothing for the window.
func (w *ActionWindow) TopAction() ActionScore {
	var top ActionScore
	for _, a := range w.Actions {
		if a.Confidence > top.Confidence {
			top = a
		}
	}
	return top
}

// FilterWindows keeps the windows containing at least one action at or above
// threshold, with each window's action list reduced to the qualifying
// entries.
func FilterWindows(windows []ActionWindow, threshold float64) []ActionWindow {
	out := make([]ActionWindow, 0, len(windows))
	for _, w := range windows {
		kept := make([]ActionScore, 0, len(w.Actions))
		for _, a := range w.Actions {
			if a.Confidence >= threshold {
				kept = append(kept, a)
			}
		}
		if len(kept) > 0 {
			out = append(out, ActionWindow{Start: w.Start, End: w.End, Actions: kept})
		}
	}
	return out
}

// TopLabelsByMeanConfidence ranks every label seen across the windows by its
// mean confidence and returns the best n. Used to derive a music prompt from
// a classification log.
func TopLabelsByMeanConfidence(windows []ActionWindow, n int) []string {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, w := range windows {
		for _, a := range w.Actions {
			sums[a.Label] += a.Confidence
			counts[a.Label]++
		}
	}
	type labelMean struct {
		label string
		mean  float64
	}
	means := make([]labelMean, 0, len(sums))
	for label, sum := range sums {
		means = append(means, labelMean{label: label, mean: sum / float64(counts[label])})
	}
	sort.Slice(means, func(i, j int) bool { return means[i].mean > means[j].mean })
	if len(means) > n {
		means = means[:n]
	}
	out := make([]string, 0, len(means))
	for _, m := range means {
		out = append(out, m.label)
	}
	return out
}

// TimeRange is a (start, end) interval in seconds selected for retention by
// the cut selector.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the range length in seconds.
func (t TimeRange) Duration() float64 { return t.End - t.Start }

// MergeTimeRanges sorts the ranges and merges every overlapping or touching
// pair, so the cut stage never re-encodes the same second twice.
func MergeTimeRanges(ranges []TimeRange) []TimeRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []TimeRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// VoiceRegion is a half-open [Start, End) interval in seconds where speech
// energy was detected. Region lists are always disjoint, sorted ascending,
// and every region is at least the detector's minimum length.
type VoiceRegion struct {
	Start float64
	End   float64
}

// Duration returns the region length in seconds.
func (v VoiceRegion) Duration() float64 { return v.End - v.Start }

// TranscriptSegment is one timed text segment from the speech-to-text
// capability, with the model's rejection statistics attached.
type TranscriptSegment struct {
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	NoSpeechProb float64 `json:"no_speech_prob"`
	AvgLogProb   float64 `json:"avg_logprob"`
}
