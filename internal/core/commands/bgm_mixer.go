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

// This file implements the background-music stage.
//
// Logic Flow:
//  1. Derive a music prompt: either refine the user's own description, or
//     in automatic mode summarize the classified actions into a theme. Both
//     go through the language model so the synthesizer always receives a
//     style-rich prompt.
//  2. Synthesize the track in fixed-length chunks, dropping silent chunks
//     and lifting quiet ones, crossfading the survivors together.
//  3. Tile the result to the full video length and normalize it.
//  4. If the video has a voice track, duck the music under the detected
//     speech regions and mix; otherwise attach the music as the only track.
package commands

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/storycut/edit-service/internal/audio"
	"github.com/storycut/edit-service/internal/cloud"
	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/model"
	"github.com/storycut/edit-service/internal/inference"
	"github.com/storycut/edit-service/internal/media"
)

// Chunk admission thresholds, in dBFS. A generated chunk at or below
// SilentChunkDB carries no music and is dropped; one below QuietChunkDB is
// kept but lifted by QuietChunkBoostDB first.
const (
	SilentChunkDB     = -80.0
	QuietChunkDB      = -35.0
	QuietChunkBoostDB = 10.0
	// ChunkCrossfadeSeconds is the overlap between consecutive chunks and
	// between loop iterations when tiling.
	ChunkCrossfadeSeconds = 0.5
	// MusicThemeLabels is how many top action labels feed the automatic
	// theme prompt.
	MusicThemeLabels = 5
	// MusicPeakTarget is the normalization target before ducking.
	MusicPeakTarget = 0.95
)

// BGMMixerCommand generates a background track and mixes it under the
// video's voice track.
type BGMMixerCommand struct {
	cor.BaseCommand
	runner        *media.Runner
	classifier    inference.ActionClassifier
	generator     inference.MusicGenerator
	agent         *cloud.QuotaAwareGenerativeAIModel
	styleTemplate *template.Template
	themeTemplate *template.Template
	pipeline      *cloud.Pipeline
	stagingDir    string

	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

// NewBGMMixerCommand creates the BGM stage. styleTemplate receives
// {{.Prompt}}; themeTemplate receives {{.Labels}}.
func NewBGMMixerCommand(
	name string,
	runner *media.Runner,
	classifier inference.ActionClassifier,
	generator inference.MusicGenerator,
	agent *cloud.QuotaAwareGenerativeAIModel,
	styleTemplate string,
	themeTemplate string,
	pipeline *cloud.Pipeline,
	stagingDir string,
) (*BGMMixerCommand, error) {
	style, err := template.New(name + ".style").Parse(styleTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid music-style template: %w", err)
	}
	theme, err := template.New(name + ".theme").Parse(themeTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid music-theme template: %w", err)
	}
	c := &BGMMixerCommand{
		BaseCommand:   *cor.NewBaseCommand(name),
		runner:        runner,
		classifier:    classifier,
		generator:     generator,
		agent:         agent,
		styleTemplate: style,
		themeTemplate: theme,
		pipeline:      pipeline,
		stagingDir:    stagingDir,
	}
	c.inputTokenCounter, _ = c.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.input", name))
	c.outputTokenCounter, _ = c.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.output", name))
	c.retryCounter, _ = c.GetMeter().Int64Counter(fmt.Sprintf("%s.retries", name))
	return c, nil
}

// Execute runs the stage. Requests that asked for no music pass straight
// through.
func (c *BGMMixerCommand) Execute(context cor.Context) {
	ctx := context.GetContext()
	request := context.Get(c.GetInputParam()).(*model.PipelineRequest)
	defer context.Add(c.GetOutputParam(), request)

	if !request.WantsMusic() {
		c.GetSuccessCounter().Add(ctx, 1)
		return
	}
	asset := context.CurrentAsset()

	prompt, err := c.derivePrompt(context, request, asset)
	if err != nil {
		c.fail(context, err)
		return
	}

	duration, err := c.runner.Duration(ctx, asset)
	if err != nil {
		c.fail(context, err)
		return
	}

	music, musicRate, err := c.synthesize(context, prompt, duration)
	if err != nil {
		c.fail(context, err)
		return
	}

	bgmPath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_bgm.wav", uuid.NewString()))
	context.AddTempFile(bgmPath)
	outPath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_mixed.mp4", uuid.NewString()))

	hasAudio, err := c.runner.HasAudioStream(ctx, asset)
	if err != nil {
		c.fail(context, err)
		return
	}
	if !hasAudio {
		// No voice to respect: the generated track becomes the only audio.
		if err = audio.WriteWAVMono(bgmPath, music, musicRate); err != nil {
			c.fail(context, err)
			return
		}
		if err = c.runner.AttachAudio(ctx, asset, bgmPath, outPath); err != nil {
			c.fail(context, err)
			return
		}
		c.finish(context, outPath)
		return
	}

	voicePath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_voice.wav", uuid.NewString()))
	context.AddTempFile(voicePath)
	if err = c.runner.ExtractWAV(ctx, asset, voicePath); err != nil {
		c.fail(context, err)
		return
	}
	voice, voiceRate, err := audio.ReadWAVMono(voicePath)
	if err != nil {
		c.fail(context, err)
		return
	}

	regions := audio.DetectVoice(voice, voiceRate, c.pipeline.VADAggressiveness)
	audio.DuckMusic(music, musicRate, voice, voiceRate, regions, c.duckingPolicy())
	if err = audio.WriteWAVMono(bgmPath, music, musicRate); err != nil {
		c.fail(context, err)
		return
	}

	mixedPath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_mix.wav", uuid.NewString()))
	context.AddTempFile(mixedPath)
	if err = c.runner.MixTracks(ctx, voicePath, bgmPath, mixedPath); err != nil {
		c.fail(context, err)
		return
	}
	if err = c.runner.ReplaceAudio(ctx, asset, mixedPath, outPath); err != nil {
		c.fail(context, err)
		return
	}
	c.finish(context, outPath)
}

func (c *BGMMixerCommand) finish(context cor.Context, outPath string) {
	if err := context.PromoteAsset(outPath); err != nil {
		c.fail(context, err)
		return
	}
	c.GetSuccessCounter().Add(context.GetContext(), 1)
}

// derivePrompt produces the synthesizer prompt. A user-supplied description
// is refined with the style template; automatic mode summarizes the top
// classified action labels with the theme template. The classification log
// left behind by the cut stage is reused when present.
func (c *BGMMixerCommand) derivePrompt(context cor.Context, request *model.PipelineRequest, asset string) (string, error) {
	var rendered strings.Builder
	if request.MusicPrompt != "" {
		if err := c.styleTemplate.Execute(&rendered, map[string]string{"Prompt": request.MusicPrompt}); err != nil {
			return "", err
		}
	} else {
		windows, err := c.actionLog(context, asset)
		if err != nil {
			return "", err
		}
		labels := model.TopLabelsByMeanConfidence(windows, MusicThemeLabels)
		if err := c.themeTemplate.Execute(&rendered, map[string]string{"Labels": strings.Join(labels, ", ")}); err != nil {
			return "", err
		}
	}

	reply, err := cloud.GenerateTextResponse(
		context.GetContext(),
		c.inputTokenCounter,
		c.outputTokenCounter,
		c.retryCounter,
		0,
		c.agent,
		cloud.NewTextPart(rendered.String()))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(cloud.StripCodeFences(reply)), nil
}

func (c *BGMMixerCommand) actionLog(context cor.Context, asset string) ([]model.ActionWindow, error) {
	if logged := context.Get(CtxActionLog); logged != nil {
		if windows, ok := logged.([]model.ActionWindow); ok {
			return windows, nil
		}
	}
	windows, err := c.classifier.Classify(context.GetContext(), asset, c.pipeline.WindowSeconds)
	if err != nil {
		return nil, err
	}
	context.Add(CtxActionLog, windows)
	return windows, nil
}

// synthesize generates chunked music, crossfades the audible chunks, and
// tiles the result to the full duration.
func (c *BGMMixerCommand) synthesize(context cor.Context, prompt string, duration float64) ([]float64, int, error) {
	ctx := context.GetContext()
	chunkSeconds := c.pipeline.MusicSegmentSeconds
	numChunks := max(1, int(duration/chunkSeconds))

	var track []float64
	rate := 0
	for i := 0; i < numChunks; i++ {
		chunk, err := c.generator.Generate(ctx, prompt, chunkSeconds)
		if err != nil {
			return nil, 0, err
		}
		rate = chunk.SampleRate

		level := audio.RMSdBFS(chunk.Samples)
		if level <= SilentChunkDB {
			continue
		}
		if level < QuietChunkDB {
			audio.ApplyGainDB(chunk.Samples, QuietChunkBoostDB)
			clipSamples(chunk.Samples)
		}
		if track == nil {
			track = chunk.Samples
			continue
		}
		track = audio.Crossfade(track, chunk.Samples, crossfadeSamples(rate))
	}
	if len(track) == 0 {
		return nil, 0, model.ErrSilentGeneration
	}

	track = audio.TileToLength(track, int(math.Ceil(duration*float64(rate))), crossfadeSamples(rate))
	audio.PeakNormalize(track, MusicPeakTarget)
	return track, rate, nil
}

func (c *BGMMixerCommand) duckingPolicy() audio.DuckingPolicy {
	d := c.pipeline.Ducking
	return audio.DuckingPolicy{
		GapThresholdSeconds: d.GapThresholdSeconds,
		GapCarryover:        d.GapCarryover,
		SilenceGainDB:       d.SilenceGainDB,
		TailGainDB:          d.TailGainDB,
		VoiceFloorDB:        d.VoiceFloorDB,
		VoiceOffsetDB:       d.VoiceOffsetDB,
		MakeupGainDB:        d.MakeupGainDB,
		FadeMillis:          d.FadeMillis,
	}
}

func (c *BGMMixerCommand) fail(context cor.Context, err error) {
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(c.GetName(), err)
}

func crossfadeSamples(rate int) int {
	return int(ChunkCrossfadeSeconds * float64(rate))
}

func clipSamples(samples []float64) {
	for i, s := range samples {
		if s > 1 {
			samples[i] = 1
		} else if s < -1 {
			samples[i] = -1
		}
	}
}
