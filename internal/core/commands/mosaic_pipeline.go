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

// This file implements the face-mosaic stage.
//
// Logic Flow:
//  1. Embed the uploaded target faces. The targets are the people who stay
//     recognizable; every other detected face gets pixelated.
//  2. Partition the video into contiguous frame segments and process them
//     in parallel, one worker per segment.
//  3. Concatenate the processed segments and re-attach the original audio
//     track.
//
// A failure in any segment fails the whole run: emitting a video where one
// third is mosaiced and the rest is not would silently violate the privacy
// guarantee the user asked for.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/storycut/edit-service/internal/cloud"
	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/model"
	"github.com/storycut/edit-service/internal/inference"
	"github.com/storycut/edit-service/internal/media"
	"github.com/storycut/edit-service/internal/vision"
)

// MosaicCommand pixelates every face except the requested targets.
type MosaicCommand struct {
	cor.BaseCommand
	runner     *media.Runner
	faces      inference.FaceAnalyzer
	pipeline   *cloud.Pipeline
	stagingDir string
	maxWorkers int
}

// NewMosaicCommand creates the mosaic stage. maxWorkers bounds how many
// segment workers run at once; each worker holds a decoder and an encoder
// subprocess, so this is effectively an ffmpeg process budget.
func NewMosaicCommand(name string, runner *media.Runner, faces inference.FaceAnalyzer, pipeline *cloud.Pipeline, stagingDir string, maxWorkers int) *MosaicCommand {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &MosaicCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		runner:      runner,
		faces:       faces,
		pipeline:    pipeline,
		stagingDir:  stagingDir,
		maxWorkers:  maxWorkers,
	}
}

// Execute runs the stage. Requests without target images pass straight
// through.
func (c *MosaicCommand) Execute(context cor.Context) {
	ctx := context.GetContext()
	request := context.Get(c.GetInputParam()).(*model.PipelineRequest)
	defer context.Add(c.GetOutputParam(), request)

	if !request.WantsMosaic() {
		c.GetSuccessCounter().Add(ctx, 1)
		return
	}
	asset := context.CurrentAsset()

	targets, err := c.embedTargets(context, request.TargetImages())
	if err != nil {
		c.fail(context, err)
		return
	}

	job, err := c.describeVideo(context, asset)
	if err != nil {
		c.fail(context, err)
		return
	}

	segments, err := c.processSegments(context, asset, job, targets)
	if err != nil {
		c.fail(context, err)
		return
	}

	silentPath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_mosaic_silent.mp4", uuid.NewString()))
	if err = c.runner.Concat(ctx, segments, silentPath); err != nil {
		c.fail(context, err)
		return
	}

	hasAudio, err := c.runner.HasAudioStream(ctx, asset)
	if err != nil {
		c.fail(context, err)
		return
	}
	muxedPath := silentPath
	if hasAudio {
		context.AddTempFile(silentPath)
		muxedPath = filepath.Join(c.stagingDir, fmt.Sprintf("%s_mosaic.mp4", uuid.NewString()))
		if err = c.runner.AttachAudio(ctx, silentPath, asset, muxedPath); err != nil {
			c.fail(context, err)
			return
		}
	}

	// The concatenated segments carry the frame encoder's default rate
	// control; a delivery pass brings the file back to the source bitrate.
	context.AddTempFile(muxedPath)
	finalPath := filepath.Join(c.stagingDir, fmt.Sprintf("%s_delivery.mp4", uuid.NewString()))
	if err = c.runner.DeliveryEncode(ctx, muxedPath, finalPath, c.runner.VideoBitrate(ctx, asset)); err != nil {
		c.fail(context, err)
		return
	}
	if err = context.PromoteAsset(finalPath); err != nil {
		c.fail(context, err)
		return
	}
	context.Add(CtxIsBlur, true)
	c.GetSuccessCounter().Add(ctx, 1)
}

// embedTargets turns the uploaded reference images into face embeddings.
// Each image must exist and contain at least one detectable face; when an
// image has several, the detector's highest-scoring face wins.
func (c *MosaicCommand) embedTargets(context cor.Context, images []string) ([][]float64, error) {
	ctx := context.GetContext()
	targets := make([][]float64, 0, len(images))
	for _, imagePath := range images {
		context.AddTempFile(imagePath)
		if _, err := os.Stat(imagePath); err != nil {
			return nil, fmt.Errorf("%w: %s", model.ErrInputNotFound, imagePath)
		}
		faces, err := c.faces.AnalyzeFile(ctx, imagePath)
		if err != nil {
			return nil, err
		}
		if len(faces) == 0 {
			return nil, fmt.Errorf("%w: %s", model.ErrNoFaceDetected, filepath.Base(imagePath))
		}
		best := faces[0]
		for _, f := range faces[1:] {
			if f.Score > best.Score {
				best = f
			}
		}
		targets = append(targets, best.Embedding)
	}
	return targets, nil
}

// segmentJob carries everything a worker needs about the source video.
type segmentJob struct {
	width      int
	height     int
	fps        float64
	frameCount int
}

func (c *MosaicCommand) describeVideo(context cor.Context, asset string) (segmentJob, error) {
	ctx := context.GetContext()
	var job segmentJob
	var err error
	if job.width, job.height, err = c.runner.Resolution(ctx, asset); err != nil {
		return job, err
	}
	if job.fps, err = c.runner.FrameRate(ctx, asset); err != nil {
		return job, err
	}
	if job.frameCount, err = c.runner.FrameCount(ctx, asset); err != nil {
		return job, err
	}
	return job, nil
}

// processSegments fans the frame ranges out to one worker each and waits
// for all of them. The returned paths are ordered by segment index so the
// concat preserves the timeline.
func (c *MosaicCommand) processSegments(context cor.Context, asset string, job segmentJob, targets [][]float64) ([]string, error) {
	ranges := vision.PartitionFrames(job.frameCount, c.pipeline.NumSegments)
	paths := make([]string, len(ranges))
	errs := make([]error, len(ranges))
	pool := make(chan struct{}, c.maxWorkers)

	var wg sync.WaitGroup
	for i, frameRange := range ranges {
		paths[i] = filepath.Join(c.stagingDir, fmt.Sprintf("%s_seg_%d.mp4", uuid.NewString(), i))
		context.AddTempFile(paths[i])

		wg.Add(1)
		go func(index int, fr vision.FrameRange, outPath string) {
			defer wg.Done()
			pool <- struct{}{}
			defer func() { <-pool }()
			worker := &segmentWorker{
				runner:         c.runner,
				faces:          c.faces,
				targets:        targets,
				detectInterval: c.pipeline.DetectInterval,
			}
			if err := worker.run(context.GetContext(), asset, job, fr, outPath); err != nil {
				errs[index] = &model.SegmentFailure{
					Index:      index,
					StartFrame: fr.Start,
					EndFrame:   fr.End,
					Err:        err,
				}
			}
		}(i, frameRange, paths[i])
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func (c *MosaicCommand) fail(context cor.Context, err error) {
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.AddError(c.GetName(), err)
}
