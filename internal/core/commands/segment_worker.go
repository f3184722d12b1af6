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
	"context"
	"errors"
	"io"

	"github.com/storycut/edit-service/internal/inference"
	"github.com/storycut/edit-service/internal/media"
	"github.com/storycut/edit-service/internal/vision"
)

// segmentWorker mosaics one contiguous frame range of the video. Face
// detection runs every detectInterval frames; between detections the
// tracker coasts, keeping the last known boxes alive so the mosaic does not
// flicker off when a face is briefly missed.
type segmentWorker struct {
	runner         *media.Runner
	faces          inference.FaceAnalyzer
	targets        [][]float64
	detectInterval int
}

func (w *segmentWorker) run(ctx context.Context, asset string, job segmentJob, fr vision.FrameRange, outPath string) error {
	decoder, err := w.runner.NewFrameDecoder(ctx, asset, job.width, job.height, job.fps, fr.Start, fr.End)
	if err != nil {
		return err
	}
	defer decoder.Close()

	encoder, err := w.runner.NewFrameEncoder(ctx, outPath, job.width, job.height, job.fps)
	if err != nil {
		return err
	}

	tracker := vision.NewTracker()
	buf := make([]byte, job.width*job.height*3)
	for offset := 0; ; offset++ {
		frame, err := decoder.Next(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = encoder.Close()
			return err
		}

		if offset%w.detectInterval == 0 {
			if err = w.detect(ctx, frame, tracker); err != nil {
				_ = encoder.Close()
				return err
			}
		} else {
			tracker.Coast()
		}

		for _, track := range tracker.Active() {
			if !track.IsTarget {
				vision.MosaicFace(frame, track.Box)
			}
		}
		if err = encoder.Write(frame); err != nil {
			return err
		}
	}
	return encoder.Close()
}

// detect runs one detection pass and feeds the results to the tracker.
func (w *segmentWorker) detect(ctx context.Context, frame *media.Frame, tracker *vision.Tracker) error {
	jpegData, err := vision.FrameToJPEG(frame)
	if err != nil {
		return err
	}
	faces, err := w.faces.AnalyzeJPEG(ctx, jpegData)
	if err != nil {
		return err
	}
	detections := make([]vision.Detection, 0, len(faces))
	for _, face := range faces {
		detections = append(detections, vision.Detection{
			Box:      vision.Box(face.Box),
			IsTarget: vision.MatchesAnyTarget(face.Embedding, w.targets),
		})
	}
	tracker.Observe(detections)
	return nil
}
