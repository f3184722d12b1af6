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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterWindows(t *testing.T) {
	windows := []ActionWindow{
		{Start: 0, End: 5, Actions: []ActionScore{
			{Label: "dancing", Confidence: 0.9},
			{Label: "standing", Confidence: 0.3},
		}},
		{Start: 5, End: 10, Actions: []ActionScore{
			{Label: "sitting", Confidence: 0.2},
		}},
		{Start: 10, End: 15, Actions: []ActionScore{
			{Label: "running", Confidence: 0.7},
		}},
	}

	filtered := FilterWindows(windows, 0.7)
	require.Len(t, filtered, 2)
	// Only qualifying actions survive inside a kept window.
	assert.Equal(t, []ActionScore{{Label: "dancing", Confidence: 0.9}}, filtered[0].Actions)
	// The threshold is inclusive.
	assert.Equal(t, "running", filtered[1].Actions[0].Label)
}

func TestTopAction(t *testing.T) {
	w := ActionWindow{Actions: []ActionScore{
		{Label: "a", Confidence: 0.4},
		{Label: "b", Confidence: 0.8},
	}}
	assert.Equal(t, "b", w.TopAction().Label)

	empty := ActionWindow{}
	assert.Zero(t, empty.TopAction().Confidence)
}

func TestTopLabelsByMeanConfidence(t *testing.T) {
	windows := []ActionWindow{
		{Actions: []ActionScore{{Label: "dancing", Confidence: 0.9}, {Label: "eating", Confidence: 0.5}}},
		{Actions: []ActionScore{{Label: "dancing", Confidence: 0.7}}},
		{Actions: []ActionScore{{Label: "eating", Confidence: 0.9}, {Label: "cooking", Confidence: 0.6}}},
	}
	// Means: dancing 0.8, eating 0.7, cooking 0.6.
	labels := TopLabelsByMeanConfidence(windows, 2)
	assert.Equal(t, []string{"dancing", "eating"}, labels)

	assert.Empty(t, TopLabelsByMeanConfidence(nil, 5))
}

func TestMergeTimeRanges(t *testing.T) {
	ranges := []TimeRange{
		{Start: 10, End: 20},
		{Start: 0, End: 5},
		{Start: 4, End: 8}, // overlaps the second
		{Start: 8, End: 9}, // touches: still merged
		{Start: 30, End: 40},
	}
	merged := MergeTimeRanges(ranges)
	require.Len(t, merged, 3)
	assert.Equal(t, TimeRange{Start: 0, End: 9}, merged[0])
	assert.Equal(t, TimeRange{Start: 10, End: 20}, merged[1])
	assert.Equal(t, TimeRange{Start: 30, End: 40}, merged[2])

	assert.Nil(t, MergeTimeRanges(nil))
}

func TestTargetImagesCapped(t *testing.T) {
	r := PipelineRequest{Images: []string{"a.jpg", "b.jpg", "c.jpg"}}
	assert.Len(t, r.TargetImages(), MaxTargetImages)
	assert.True(t, r.WantsMosaic())

	none := PipelineRequest{}
	assert.False(t, none.WantsMosaic())
	assert.False(t, none.WantsCut())
	assert.False(t, none.WantsMusic())

	auto := PipelineRequest{AutoMusic: true}
	assert.True(t, auto.WantsMusic())
}
