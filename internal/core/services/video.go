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

// Package services contains the business logic that sits between the
// transports and the pipeline. This file defines the VideoEditService,
// which runs one edit workflow per trigger and delivers the terminal
// device notification whatever the outcome.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/storycut/edit-service/internal/cloud"
	"github.com/storycut/edit-service/internal/core/commands"
	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/model"
)

// VideoEditService executes edit pipeline runs. It implements cor.Command
// so a Pub/Sub listener can drive it directly with a raw message payload;
// the HTTP surface goes through Edit with an already-parsed request. Both
// paths end with a push notification to the requesting device.
type VideoEditService struct {
	cor.BaseCommand
	workflow cor.Command
	notifier *cloud.FCMNotifier
}

// NewVideoEditService wires the assembled workflow chain and the notifier
// into a runnable service.
func NewVideoEditService(name string, workflow cor.Command, notifier *cloud.FCMNotifier) *VideoEditService {
	return &VideoEditService{
		BaseCommand: *cor.NewBaseCommand(name),
		workflow:    workflow,
		notifier:    notifier,
	}
}

// Edit runs the full pipeline for one request and returns the registered
// result record. Temp files and the staged video are removed when the run
// finishes, whatever the outcome.
func (s *VideoEditService) Edit(ctx context.Context, request *model.PipelineRequest) (*model.VideoRecord, error) {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, request)
	defer chainCtx.Close()

	s.Execute(chainCtx)

	if chainCtx.HasErrors() {
		errs := make([]error, 0, len(chainCtx.GetErrors()))
		for stage, err := range chainCtx.GetErrors() {
			errs = append(errs, fmt.Errorf("%s: %w", stage, err))
		}
		return nil, errors.Join(errs...)
	}
	record, _ := chainCtx.Get(commands.CtxResultRecord).(*model.VideoRecord)
	if record == nil {
		return nil, fmt.Errorf("workflow completed without a registered result for video %d", request.VideoID)
	}
	return record, nil
}

// Execute runs the workflow on an existing chain context and notifies the
// requesting device of the outcome. Stage-level failure detail goes to the
// logs only; the device gets a deliberately generic failure message.
func (s *VideoEditService) Execute(chainCtx cor.Context) {
	ctx := chainCtx.GetContext()
	s.workflow.Execute(chainCtx)

	// After the chain finishes, the piping slot holds the request the last
	// executed stage forwarded. Failures before the parser stage leave no
	// request at all, so there is no device to notify.
	request, _ := chainCtx.Get(cor.CtxIn).(*model.PipelineRequest)

	if chainCtx.HasErrors() {
		s.GetErrorCounter().Add(ctx, 1)
		for stage, err := range chainCtx.GetErrors() {
			slog.ErrorContext(ctx, "edit stage failed", "stage", stage, "error", err)
		}
		if request != nil {
			s.notifier.NotifyFailure(ctx, request.DeviceToken, request.VideoID)
		}
		return
	}

	record, _ := chainCtx.Get(commands.CtxResultRecord).(*model.VideoRecord)
	if record == nil || request == nil {
		s.GetErrorCounter().Add(ctx, 1)
		chainCtx.AddError(s.GetName(), fmt.Errorf("workflow completed without a registered result"))
		return
	}

	slog.InfoContext(ctx, "edit completed",
		"videoId", request.VideoID,
		"resultVideoId", record.VideoID,
		"videoName", record.VideoName)
	s.notifier.NotifySuccess(ctx, request.DeviceToken, record.VideoID, record.VideoName)
	s.GetSuccessCounter().Add(ctx, 1)
}
