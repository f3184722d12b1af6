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

// This file implements the subtitle stage: transcribe the audio track,
// filter out segments the speech model itself distrusts, render the rest as
// an ASS subtitle file scaled to the video's resolution, and burn it in.
// Videos without an audio track pass through unchanged.
package commands

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/model"
	"github.com/storycut/edit-service/internal/inference"
	"github.com/storycut/edit-service/internal/media"
)

// Transcription and rendering policy.
const (
	// SubtitleLanguage pins the speech model's decoding language.
	SubtitleLanguage = "ko"
	// MaxNoSpeechProb rejects segments the model thinks are probably not
	// speech.
	MaxNoSpeechProb = 0.6
	// MinAvgLogProb rejects segments decoded with very low confidence.
	MinAvgLogProb = -1.2
)

// bracketedNoise matches transcript artifacts like "[음악]" or "[(박수)]"
// that speech models emit for non-speech audio.
var bracketedNoise = regexp.MustCompile(`^\[\(?[^\]]+\)?\]$`)

// SubtitleBurnerCommand renders the spoken audio as burned-in subtitles.
type SubtitleBurnerCommand struct {
	cor.BaseCommand
	runner      *media.Runner
	transcriber inference.Transcriber
	stagingDir  string
}

// NewSubtitleBurnerCommand creates the subtitle stage.
func NewSubtitleBurnerCommand(name string, runner *media.Runner, transcriber inference.Transcriber, stagingDir string) *SubtitleBurnerCommand {
	return &SubtitleBurnerCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		runner:      runner,
		transcriber: transcriber,
		stagingDir:  stagingDir,
	}
}

// Execute runs the stage. Requests that did not ask for subtitles pass
// straight through.
func (c *SubtitleBurnerCommand) Execute(context cor.Context) {
	ctx := context.GetContext()
	request := context.Get(c.GetInputParam()).(*model.PipelineRequest)
	defer context.Add(c.GetOutputParam(), request)

	if !request.Subtitle {
		c.GetSuccessCounter().Add(ctx, 1)
		return
	}
	asset := context.CurrentAsset()

	hasAudio, err := c.runner.HasAudioStream(ctx, asset)
	if err != nil {
		c.fail(context, err)
		return
	}
	outPath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_subtitled.mp4", uuid.NewString()))
	if !hasAudio {
		// Nothing to transcribe; the stage still produces a fresh asset so
		// downstream ownership semantics stay uniform.
		if err = c.runner.StreamCopy(ctx, asset, outPath); err != nil {
			c.fail(context, err)
			return
		}
		if err = context.PromoteAsset(outPath); err != nil {
			c.fail(context, err)
		} else {
			c.GetSuccessCounter().Add(ctx, 1)
		}
		return
	}

	audioPath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_speech.wav", uuid.NewString()))
	context.AddTempFile(audioPath)
	if err = c.runner.ExtractWAV(ctx, asset, audioPath); err != nil {
		c.fail(context, err)
		return
	}

	segments, err := c.transcriber.Transcribe(ctx, audioPath, SubtitleLanguage)
	if err != nil {
		c.fail(context, err)
		return
	}

	width, height, err := c.runner.Resolution(ctx, asset)
	if err != nil {
		c.fail(context, err)
		return
	}

	assPath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_subtitle.ass", uuid.NewString()))
	context.AddTempFile(assPath)
	if err = writeASSFile(assPath, width, height, segments); err != nil {
		c.fail(context, err)
		return
	}

	if err = c.runner.BurnSubtitles(ctx, asset, assPath, outPath); err != nil {
		c.fail(context, err)
		return
	}
	if err = context.PromoteAsset(outPath); err != nil {
		c.fail(context, err)
		return
	}
	c.GetSuccessCounter().Add(ctx, 1)
}

func (c *SubtitleBurnerCommand) fail(context cor.Context, err error) {
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(c.GetName(), err)
}

// keepSegment applies the transcript quality filter: segments the model
// flagged as likely non-speech, decoded at very low confidence, empty after
// trimming, or consisting only of a bracketed sound tag are dropped.
func keepSegment(seg model.TranscriptSegment) bool {
	if seg.NoSpeechProb > MaxNoSpeechProb {
		return false
	}
	if seg.AvgLogProb < MinAvgLogProb {
		return false
	}
	text := normalizeSubtitleText(seg.Text)
	if text == "" {
		return false
	}
	return !bracketedNoise.MatchString(text)
}

func normalizeSubtitleText(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
}

// subtitleStyle computes the resolution-relative style values. Sizes are
// tuned for 1080p and scaled by the longer edge; portrait video gets extra
// bottom margin to clear mobile player controls.
func subtitleStyle(width, height int) (fontSize, marginV int) {
	ref := float64(max(width, height))
	fontSize = max(16, int(48*ref/1080))
	portraitBoost := 1.0
	if height > width {
		portraitBoost = 2.2
	}
	marginV = max(10, int(30*ref/1080*portraitBoost))
	return fontSize, marginV
}

// formatASSTime renders seconds as the ASS timestamp H:MM:SS.CC.
func formatASSTime(seconds float64) string {
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := int(seconds) % 60
	cs := int(math.Round((seconds - math.Floor(seconds)) * 100))
	if cs >= 100 {
		cs = 99
	}
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// buildASS renders the complete subtitle script.
func buildASS(width, height int, segments []model.TranscriptSegment) string {
	fontSize, marginV := subtitleStyle(width, height)

	var b strings.Builder
	b.WriteString("[Script Info]\n")
	fmt.Fprintf(&b, "PlayResX: %d\nPlayResY: %d\nScriptType: v4.00+\n\n", width, height)
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, BackColour, Bold, Italic, " +
		"Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, " +
		"Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,Arial,%d,&H00FFFFFF,&H80000000,0,0,0,0,100,100,0,0,"+
		"3,2,0,2,30,30,%d,1\n\n", fontSize, marginV)
	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")

	for _, seg := range segments {
		if !keepSegment(seg) {
			continue
		}
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatASSTime(seg.Start), formatASSTime(seg.End), normalizeSubtitleText(seg.Text))
	}
	return b.String()
}

func writeASSFile(path string, width, height int, segments []model.TranscriptSegment) error {
	return writeFile(path, buildASS(width, height, segments))
}
