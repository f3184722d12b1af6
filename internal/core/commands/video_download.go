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

// This file defines the first pipeline stage: resolving the source video
// through the metadata service and staging it on local disk. Every later
// stage operates on the local copy through the context's current asset.
package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"github.com/storycut/edit-service/internal/cloud"
	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/model"
)

// VideoDownloadCommand fetches the video record from the metadata service
// and downloads the source file into the staging directory.
type VideoDownloadCommand struct {
	cor.BaseCommand
	spring     *cloud.SpringClient
	store      cloud.ObjectStore
	stagingDir string
}

// NewVideoDownloadCommand creates the download stage.
func NewVideoDownloadCommand(name string, spring *cloud.SpringClient, store cloud.ObjectStore, stagingDir string) *VideoDownloadCommand {
	return &VideoDownloadCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		spring:      spring,
		store:       store,
		stagingDir:  stagingDir,
	}
}

// Execute resolves the record, downloads the video, verifies the bytes look
// like a video container, and sets the staged file as the run's asset.
func (c *VideoDownloadCommand) Execute(context cor.Context) {
	ctx := context.GetContext()
	request := context.Get(c.GetInputParam()).(*model.PipelineRequest)

	record, err := c.spring.FetchVideo(ctx, request.AuthToken, request.VideoID)
	if err != nil {
		c.fail(context, err)
		return
	}

	localPath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_source.mp4", uuid.NewString()))
	if err = c.download(context, record.VideoURL, localPath); err != nil {
		c.fail(context, fmt.Errorf("failed to stage video %d: %w", request.VideoID, err))
		return
	}

	// Sniff the file header: a record pointing at a deleted or non-video
	// object should fail here, not deep inside ffmpeg.
	head := make([]byte, 261)
	f, err := os.Open(localPath)
	if err != nil {
		c.fail(context, err)
		return
	}
	n, _ := io.ReadFull(f, head)
	_ = f.Close()
	kind, _ := filetype.Match(head[:n])
	if kind.MIME.Type != "video" && kind != matchers.TypeMp4 {
		c.fail(context, fmt.Errorf("staged object for video %d is %q, not a video", request.VideoID, kind.MIME.Value))
		return
	}

	context.SetAsset(localPath)
	context.Add(CtxVideoRecord, record)
	context.Add(c.GetOutputParam(), request)
	c.GetSuccessCounter().Add(ctx, 1)
}

func (c *VideoDownloadCommand) download(context cor.Context, url, localPath string) error {
	if err := os.MkdirAll(c.stagingDir, 0o750); err != nil {
		return err
	}
	// Objects in our own bucket go through the storage client, which works
	// for private objects. Anything else is fetched over plain HTTP.
	if prefix := c.store.ObjectURL(""); strings.HasPrefix(url, prefix) {
		return c.store.Download(context.GetContext(), strings.TrimPrefix(url, prefix), localPath)
	}
	req, err := http.NewRequestWithContext(context.GetContext(), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return &model.ExternalServiceError{Service: "storage-download", StatusCode: resp.StatusCode}
	}

	target, err := os.Create(localPath)
	if err != nil {
		return err
	}
	if _, err = io.Copy(target, resp.Body); err != nil {
		_ = target.Close()
		_ = os.Remove(localPath)
		return err
	}
	return target.Close()
}

func (c *VideoDownloadCommand) fail(context cor.Context, err error) {
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(c.GetName(), err)
}
