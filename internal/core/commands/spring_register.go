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
	"github.com/storycut/edit-service/internal/cloud"
	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/model"
)

// SpringRegisterCommand records the finished video with the metadata
// service: register creates the record and yields its VideoID, complete
// attaches the uploaded URLs. The completed record is the pipeline result.
type SpringRegisterCommand struct {
	cor.BaseCommand
	spring *cloud.SpringClient
}

// NewSpringRegisterCommand creates the registration stage.
func NewSpringRegisterCommand(name string, spring *cloud.SpringClient) *SpringRegisterCommand {
	return &SpringRegisterCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		spring:      spring,
	}
}

// Execute registers the render, completes it with its storage URLs, and
// publishes the finished record as the pipeline's result.
func (c *SpringRegisterCommand) Execute(context cor.Context) {
	ctx := context.GetContext()
	request := context.Get(c.GetInputParam()).(*model.PipelineRequest)
	defer context.Add(c.GetOutputParam(), request)

	isBlur, _ := context.Get(CtxIsBlur).(bool)
	payload := &model.RegisterRequest{
		VideoName:       context.Get(CtxOutputName).(string),
		OriginalVideoID: request.VideoID,
		IsBlur:          isBlur,
	}
	registered, err := c.spring.RegisterVideo(ctx, request.AuthToken, payload)
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}

	record, err := c.spring.CompleteVideo(ctx, request.AuthToken, registered.VideoID,
		context.Get(CtxVideoURL).(string), context.Get(CtxThumbnailURL).(string))
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(CtxResultRecord, record)
	c.GetSuccessCounter().Add(ctx, 1)
}
