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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storycut/edit-service/internal/core/model"
)

func TestFormatASSTime(t *testing.T) {
	assert.Equal(t, "0:00:00.00", formatASSTime(0))
	assert.Equal(t, "0:00:01.50", formatASSTime(1.5))
	assert.Equal(t, "0:01:05.25", formatASSTime(65.25))
	assert.Equal(t, "1:01:01.01", formatASSTime(3661.01))
}

func TestKeepSegment(t *testing.T) {
	good := model.TranscriptSegment{Text: "안녕하세요", NoSpeechProb: 0.1, AvgLogProb: -0.3}
	assert.True(t, keepSegment(good))

	// The model itself doubts these; they never reach the screen.
	assert.False(t, keepSegment(model.TranscriptSegment{Text: "hi", NoSpeechProb: 0.7, AvgLogProb: -0.3}))
	assert.False(t, keepSegment(model.TranscriptSegment{Text: "hi", NoSpeechProb: 0.1, AvgLogProb: -1.5}))
	assert.False(t, keepSegment(model.TranscriptSegment{Text: "   ", NoSpeechProb: 0.1, AvgLogProb: -0.3}))
	assert.False(t, keepSegment(model.TranscriptSegment{Text: "[음악]", NoSpeechProb: 0.1, AvgLogProb: -0.3}))
	assert.False(t, keepSegment(model.TranscriptSegment{Text: "[(박수)]", NoSpeechProb: 0.1, AvgLogProb: -0.3}))
}

func TestSubtitleStyleScalesWithResolution(t *testing.T) {
	fontSize, marginV := subtitleStyle(1920, 1080)
	assert.Equal(t, 85, fontSize) // 48 * 1920/1080
	assert.Equal(t, 53, marginV)  // 30 * 1920/1080

	// Portrait video pushes subtitles further up from the bottom edge.
	_, portraitMargin := subtitleStyle(1080, 1920)
	assert.Greater(t, portraitMargin, marginV)

	// Tiny videos bottom out at readable minimums.
	fontSize, marginV = subtitleStyle(160, 120)
	assert.Equal(t, 16, fontSize)
	assert.Equal(t, 10, marginV)
}

func TestBuildASS(t *testing.T) {
	segments := []model.TranscriptSegment{
		{Start: 0, End: 2.5, Text: " 첫 번째 자막 ", NoSpeechProb: 0.1, AvgLogProb: -0.2},
		{Start: 3, End: 4, Text: "[음악]", NoSpeechProb: 0.1, AvgLogProb: -0.2},
		{Start: 5, End: 7, Text: "두 번째\n자막", NoSpeechProb: 0.1, AvgLogProb: -0.2},
	}
	script := buildASS(1920, 1080, segments)

	assert.Contains(t, script, "PlayResX: 1920")
	assert.Contains(t, script, "PlayResY: 1080")
	assert.Contains(t, script, "Dialogue: 0,0:00:00.00,0:00:02.50,Default,,0,0,0,,첫 번째 자막")
	// Newlines inside a segment flatten to spaces.
	assert.Contains(t, script, "두 번째 자막")
	// The rejected noise tag never appears.
	assert.NotContains(t, script, "[음악]")
	assert.Equal(t, 2, strings.Count(script, "Dialogue:"))
}
