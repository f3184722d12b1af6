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

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storycut/edit-service/internal/core/model"
)

func TestParseTimeRanges(t *testing.T) {
	ranges, err := parseTimeRanges("[(0.0, 10.0), (25.5, 40.0)]")
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, model.TimeRange{Start: 0, End: 10}, ranges[0])
	assert.Equal(t, model.TimeRange{Start: 25.5, End: 40}, ranges[1])
}

func TestParseTimeRangesBracketStyles(t *testing.T) {
	// Models occasionally answer with JSON-style nested lists; both pair
	// styles parse.
	ranges, err := parseTimeRanges("[[0, 5], [10, 15]]")
	require.NoError(t, err)
	assert.Len(t, ranges, 2)
}

func TestParseTimeRangesRejectsProse(t *testing.T) {
	_, err := parseTimeRanges("Sure! Here are the ranges: (0, 10)")
	assert.ErrorIs(t, err, model.ErrMalformedModelResponse)

	_, err = parseTimeRanges("[]")
	assert.ErrorIs(t, err, model.ErrMalformedModelResponse)
}

func TestClampRanges(t *testing.T) {
	ranges := []model.TimeRange{
		{Start: -5, End: 10},
		{Start: 20, End: 99},
		{Start: 40, End: 41}, // fully past the end after clamping
	}
	clamped := clampRanges(ranges, 30)
	require.Len(t, clamped, 2)
	assert.Equal(t, model.TimeRange{Start: 0, End: 10}, clamped[0])
	assert.Equal(t, model.TimeRange{Start: 20, End: 30}, clamped[1])
}

func TestFormatActionLog(t *testing.T) {
	windows := []model.ActionWindow{
		{Start: 0, End: 5, Actions: []model.ActionScore{
			{Label: "dancing", Confidence: 0.912},
			{Label: "jumping", Confidence: 0.75},
		}},
	}
	log := formatActionLog(windows)
	assert.Equal(t, "0.0~5.0: dancing (0.912), jumping (0.750)\n", log)
}
