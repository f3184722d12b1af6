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
	"path/filepath"

	"github.com/google/uuid"

	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/model"
	"github.com/storycut/edit-service/internal/media"
)

// ThumbnailCommand grabs a representative still from the finished video.
type ThumbnailCommand struct {
	cor.BaseCommand
	runner     *media.Runner
	stagingDir string
}

// NewThumbnailCommand creates the thumbnail stage.
func NewThumbnailCommand(name string, runner *media.Runner, stagingDir string) *ThumbnailCommand {
	return &ThumbnailCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		runner:      runner,
		stagingDir:  stagingDir,
	}
}

// Execute extracts one frame of the current asset as the video's thumbnail
// and publishes its path for the upload stage.
func (c *ThumbnailCommand) Execute(context cor.Context) {
	ctx := context.GetContext()
	request := context.Get(c.GetInputParam()).(*model.PipelineRequest)
	defer context.Add(c.GetOutputParam(), request)

	thumbPath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_thumb.jpg", uuid.NewString()))
	if err := c.runner.Thumbnail(ctx, context.CurrentAsset(), thumbPath); err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	context.AddTempFile(thumbPath)
	context.Add(CtxThumbnailPath, thumbPath)
	c.GetSuccessCounter().Add(ctx, 1)
}
