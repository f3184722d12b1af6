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

// Package workflow defines the high-level business logic orchestrations,
// combining individual commands into coherent pipelines. This file
// implements the full video edit workflow.
package workflow

import (
	"github.com/storycut/edit-service/internal/cloud"
	"github.com/storycut/edit-service/internal/core/commands"
	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/media"
)

// VideoEditWorkflow orchestrates one complete edit run. It is structured as
// a Chain of Responsibility (cor.Chain) executing the stages in their fixed
// order: stage order is part of the product; every optional stage decides
// for itself whether the request enables it.
//
// The workflow is triggered either by the HTTP surface or by a Pub/Sub
// message carrying the same request payload.
type VideoEditWorkflow struct {
	cor.BaseCommand
	config  *cloud.Config
	clients *cloud.ServiceClients
	runner  *media.Runner
	agent   *cloud.QuotaAwareGenerativeAIModel
	chain   cor.Chain
}

// Execute runs the entire edit workflow by invoking the underlying chain.
func (w *VideoEditWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain builds the stage sequence. Each command reads its input
// from the chain's piping slot and each optional stage passes the request
// through untouched when the request does not enable it, so the chain shape
// is identical for every run.
func (w *VideoEditWorkflow) initializeChain() {
	videoDir := w.config.Storage.VideoDir
	pipeline := &w.config.Pipeline

	out := cor.NewBaseChain(w.GetName())

	// Step 1: normalize the trigger payload into a pipeline request.
	out.AddCommand(commands.NewRequestParserCommand("parse-trigger"))

	// Step 2: resolve the source video with the metadata service and stage
	// it locally. From here on the file flows between stages as the
	// context's current asset.
	out.AddCommand(commands.NewVideoDownloadCommand("download-video", w.clients.Spring, w.clients.ObjectStore, videoDir))

	// Step 3: prompt-driven cut selection.
	cutSelector, err := commands.NewCutSelectorCommand(
		"select-cuts",
		w.runner,
		w.clients.Inference.Action,
		w.agent,
		w.config.PromptTemplates.CutSelection,
		pipeline,
		videoDir)
	if err != nil {
		panic(err)
	}
	out.AddCommand(cutSelector)

	// Step 4: burn subtitles.
	out.AddCommand(commands.NewSubtitleBurnerCommand("burn-subtitles", w.runner, w.clients.Inference.Transcribe, videoDir))

	// Step 5: generate and mix background music under the voice track.
	mixer, err := commands.NewBGMMixerCommand(
		"mix-bgm",
		w.runner,
		w.clients.Inference.Action,
		w.clients.Inference.Music,
		w.agent,
		w.config.PromptTemplates.MusicStyle,
		w.config.PromptTemplates.MusicTheme,
		pipeline,
		videoDir)
	if err != nil {
		panic(err)
	}
	out.AddCommand(mixer)

	// Step 6: mosaic every face except the requested targets.
	out.AddCommand(commands.NewMosaicCommand("mosaic-faces", w.runner, w.clients.Inference.Face, pipeline, w.config.Storage.SegmentDir, w.config.Application.ThreadPoolSize))

	// Step 7: extract a thumbnail from the finished video.
	out.AddCommand(commands.NewThumbnailCommand("extract-thumbnail", w.runner, videoDir))

	// Step 8: upload the video and thumbnail to object storage.
	out.AddCommand(commands.NewPublishCommand("publish-outputs", w.clients.ObjectStore))

	// Step 9: register the result with the metadata service.
	out.AddCommand(commands.NewSpringRegisterCommand("register-video", w.clients.Spring))

	w.chain = out
}

// NewVideoEditPipeline is the constructor for the VideoEditWorkflow. The
// agentModelName selects which configured agent model phrases the cut and
// music prompts.
func NewVideoEditPipeline(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string) *VideoEditWorkflow {

	agent, ok := serviceClients.AgentModels[agentModelName]
	if !ok {
		panic("unknown agent model: " + agentModelName)
	}

	w := &VideoEditWorkflow{
		BaseCommand: *cor.NewBaseCommand("video-edit-workflow"),
		config:      config,
		clients:     serviceClients,
		runner:      media.NewRunner(),
		agent:       agent,
	}
	w.initializeChain()
	return w
}
