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
	"fmt"

	"github.com/google/uuid"

	"github.com/storycut/edit-service/internal/cloud"
	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/model"
)

// PublishCommand uploads the finished video and its thumbnail to object
// storage and publishes their public URLs for the registration stage.
type PublishCommand struct {
	cor.BaseCommand
	store cloud.ObjectStore
}

// NewPublishCommand creates the upload stage.
func NewPublishCommand(name string, store cloud.ObjectStore) *PublishCommand {
	return &PublishCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		store:       store,
	}
}

// Execute uploads the current asset and the thumbnail produced by the
// previous stage. Object keys are freshly minted so re-runs never
// overwrite an earlier result.
func (c *PublishCommand) Execute(context cor.Context) {
	ctx := context.GetContext()
	request := context.Get(c.GetInputParam()).(*model.PipelineRequest)
	defer context.Add(c.GetOutputParam(), request)

	outputName := fmt.Sprintf("%s.mp4", uuid.NewString())
	videoURL, err := c.store.Upload(ctx, context.CurrentAsset(), "videos/"+outputName, "video/mp4")
	if err != nil {
		c.fail(context, err)
		return
	}

	thumbPath, ok := context.Get(CtxThumbnailPath).(string)
	if !ok {
		c.fail(context, fmt.Errorf("%w: thumbnail missing from pipeline context", model.ErrInputNotFound))
		return
	}
	thumbKey := fmt.Sprintf("thumbnails/%s.jpg", uuid.NewString())
	thumbURL, err := c.store.Upload(ctx, thumbPath, thumbKey, "image/jpeg")
	if err != nil {
		c.fail(context, err)
		return
	}

	context.Add(CtxOutputName, outputName)
	context.Add(CtxVideoURL, videoURL)
	context.Add(CtxThumbnailURL, thumbURL)
	c.GetSuccessCounter().Add(ctx, 1)
}

func (c *PublishCommand) fail(context cor.Context, err error) {
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(c.GetName(), err)
}
