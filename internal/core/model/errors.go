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

// Package model defines the core data structures of the edit service. This
// file is the pipeline's error taxonomy. Stages wrap their failures in these
// types so the workflow boundary can log precise causes while reporting only
// a generic message to the user.
package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInputNotFound indicates a referenced local file (target image or
	// video) does not exist. Aborts the run immediately.
	ErrInputNotFound = errors.New("input file not found")

	// ErrNoFaceDetected indicates a target image yielded zero face
	// embeddings. Aborts the mosaic stage and therefore the run.
	ErrNoFaceDetected = errors.New("no face detected in target image")

	// ErrSilentGeneration indicates every generated music segment was
	// judged inaudible. The BGM stage fails rather than emitting silence.
	ErrSilentGeneration = errors.New("no audible music generated")

	// ErrMalformedModelResponse indicates text-generation output could not
	// be parsed into the expected structure.
	ErrMalformedModelResponse = errors.New("malformed text-generation response")
)

// ExternalServiceError wraps a non-2xx response from a collaborator
// (metadata service, object storage, text generation) with enough detail
// for diagnostics. Callers surface it to users as a generic failure.
type ExternalServiceError struct {
	Service    string // Logical collaborator name, e.g. "spring" or "musicgen".
	StatusCode int
	Body       string
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s request failed: status %d: %s", e.Service, e.StatusCode, e.Body)
}

// SubprocessError wraps a non-zero exit of the media-encoding tool. It is
// always surfaced: a failed encode implies a corrupt or missing output file.
type SubprocessError struct {
	Tool   string // "ffmpeg" or "ffprobe".
	Args   []string
	Stderr string
	Err    error
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("%s failed: %v: %s", e.Tool, e.Err, e.Stderr)
}

func (e *SubprocessError) Unwrap() error { return e.Err }

// SegmentFailure reports which frame range of a parallel mosaic fan-out
// failed and why. The merge step fails fast on any SegmentFailure instead of
// concatenating around a missing segment.
type SegmentFailure struct {
	Index      int // Segment ordinal within the fan-out.
	StartFrame int
	EndFrame   int
	Err        error
}

func (e *SegmentFailure) Error() string {
	return fmt.Sprintf("segment %d (frames %d-%d) failed: %v", e.Index, e.StartFrame, e.EndFrame, e.Err)
}

func (e *SegmentFailure) Unwrap() error { return e.Err }
