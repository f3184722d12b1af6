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

// This file implements the prompt-driven cut selection stage.
//
// Logic Flow:
//  1. Classify the video into fixed windows of ranked actions.
//  2. Drop windows with no action above the confidence threshold. If
//     nothing survives, the video passes through unchanged.
//  3. Send the surviving action log plus the user's prompt to the language
//     model, which answers with a literal list of (start, end) pairs.
//  4. Merge overlapping ranges, cut each range with a frame-accurate
//     re-encode, and concatenate the pieces into the new current asset.
//
// The full classification log is also published to the context so the BGM
// stage can derive a music prompt without re-classifying.
package commands

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/storycut/edit-service/internal/cloud"
	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/model"
	"github.com/storycut/edit-service/internal/inference"
	"github.com/storycut/edit-service/internal/media"
)

// rangePair matches one "(start, end)" or "[start, end]" pair in the model's
// reply.
var rangePair = regexp.MustCompile(`[(\[]\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*[)\]]`)

// CutSelectorCommand trims the video to the time ranges most relevant to
// the user's prompt.
type CutSelectorCommand struct {
	cor.BaseCommand
	runner     *media.Runner
	classifier inference.ActionClassifier
	agent      *cloud.QuotaAwareGenerativeAIModel
	template   *template.Template
	pipeline   *cloud.Pipeline
	stagingDir string

	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

// NewCutSelectorCommand creates the cut-selection stage. The promptTemplate
// receives {{.Prompt}} and {{.ActionLog}}.
func NewCutSelectorCommand(
	name string,
	runner *media.Runner,
	classifier inference.ActionClassifier,
	agent *cloud.QuotaAwareGenerativeAIModel,
	promptTemplate string,
	pipeline *cloud.Pipeline,
	stagingDir string,
) (*CutSelectorCommand, error) {
	tmpl, err := template.New(name).Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid cut-selection template: %w", err)
	}
	c := &CutSelectorCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		runner:      runner,
		classifier:  classifier,
		agent:       agent,
		template:    tmpl,
		pipeline:    pipeline,
		stagingDir:  stagingDir,
	}
	c.inputTokenCounter, _ = c.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.input", name))
	c.outputTokenCounter, _ = c.GetMeter().Int64Counter(fmt.Sprintf("%s.tokens.output", name))
	c.retryCounter, _ = c.GetMeter().Int64Counter(fmt.Sprintf("%s.retries", name))
	return c, nil
}

// Execute runs the stage. Requests without a prompt pass straight through.
func (c *CutSelectorCommand) Execute(context cor.Context) {
	ctx := context.GetContext()
	request := context.Get(c.GetInputParam()).(*model.PipelineRequest)
	defer context.Add(c.GetOutputParam(), request)

	if !request.WantsCut() {
		c.GetSuccessCounter().Add(ctx, 1)
		return
	}
	asset := context.CurrentAsset()

	windows, err := c.classifier.Classify(ctx, asset, c.pipeline.WindowSeconds)
	if err != nil {
		c.fail(context, err)
		return
	}
	context.Add(CtxActionLog, windows)

	filtered := model.FilterWindows(windows, c.pipeline.ConfidenceThreshold)
	outPath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_cut.mp4", uuid.NewString()))

	if len(filtered) == 0 {
		// No window cleared the bar: nothing to select from, keep the full
		// video.
		if err = c.runner.StreamCopy(ctx, asset, outPath); err != nil {
			c.fail(context, err)
			return
		}
		if err = context.PromoteAsset(outPath); err != nil {
			c.fail(context, err)
			return
		}
		c.GetSuccessCounter().Add(ctx, 1)
		return
	}

	ranges, err := c.selectRanges(context, request.Prompt, filtered)
	if err != nil {
		c.fail(context, err)
		return
	}

	duration, err := c.runner.Duration(ctx, asset)
	if err != nil {
		c.fail(context, err)
		return
	}
	ranges = clampRanges(model.MergeTimeRanges(ranges), duration)
	if len(ranges) == 0 {
		c.fail(context, fmt.Errorf("%w: no usable time ranges", model.ErrMalformedModelResponse))
		return
	}

	if err = c.cutAndMerge(context, asset, ranges, outPath); err != nil {
		c.fail(context, err)
		return
	}
	if err = context.PromoteAsset(outPath); err != nil {
		c.fail(context, err)
		return
	}
	c.GetSuccessCounter().Add(ctx, 1)
}

// selectRanges asks the language model which ranges match the prompt.
func (c *CutSelectorCommand) selectRanges(context cor.Context, prompt string, windows []model.ActionWindow) ([]model.TimeRange, error) {
	var rendered strings.Builder
	err := c.template.Execute(&rendered, map[string]string{
		"Prompt":    prompt,
		"ActionLog": formatActionLog(windows),
	})
	if err != nil {
		return nil, err
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
		return nil, err
	}
	return parseTimeRanges(reply)
}

// cutAndMerge re-encodes each selected range and concatenates the pieces.
func (c *CutSelectorCommand) cutAndMerge(context cor.Context, asset string, ranges []model.TimeRange, outPath string) error {
	ctx := context.GetContext()
	bitrate := c.runner.VideoBitrate(ctx, asset)

	pieces := make([]string, 0, len(ranges))
	for i, r := range ranges {
		piece := filepath.Join(c.stagingDir, fmt.Sprintf("%s_piece_%d.mp4", uuid.NewString(), i))
		context.AddTempFile(piece)
		if err := c.runner.CutSegment(ctx, asset, r.Start, r.End, bitrate, piece); err != nil {
			return err
		}
		pieces = append(pieces, piece)
	}
	return c.runner.Concat(ctx, pieces, outPath)
}

func (c *CutSelectorCommand) fail(context cor.Context, err error) {
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(c.GetName(), err)
}

// formatActionLog renders windows as "start~end: label (confidence)" lines
// for the model prompt.
func formatActionLog(windows []model.ActionWindow) string {
	var b strings.Builder
	for _, w := range windows {
		fmt.Fprintf(&b, "%.1f~%.1f:", w.Start, w.End)
		for i, a := range w.Actions {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, " %s (%.3f)", a.Label, a.Confidence)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// parseTimeRanges reads the model's literal list of (start, end) pairs. The
// model is told to answer with only the list, but replies still vary in
// bracket style, so any parenthesized or bracketed numeric pair counts.
func parseTimeRanges(reply string) ([]model.TimeRange, error) {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("%w: expected a list, got %q", model.ErrMalformedModelResponse, truncate(trimmed, 120))
	}
	matches := rangePair.FindAllStringSubmatch(trimmed, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no time pairs in %q", model.ErrMalformedModelResponse, truncate(trimmed, 120))
	}
	ranges := make([]model.TimeRange, 0, len(matches))
	for _, m := range matches {
		start, err1 := strconv.ParseFloat(m[1], 64)
		end, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: unparseable pair %q", model.ErrMalformedModelResponse, m[0])
		}
		ranges = append(ranges, model.TimeRange{Start: start, End: end})
	}
	return ranges, nil
}

// clampRanges bounds ranges to [0, duration] and drops empty ones.
func clampRanges(ranges []model.TimeRange, duration float64) []model.TimeRange {
	out := ranges[:0]
	for _, r := range ranges {
		r.Start = math.Max(0, r.Start)
		r.End = math.Min(duration, r.End)
		if r.End > r.Start {
			out = append(out, r)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
