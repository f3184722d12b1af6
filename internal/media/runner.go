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

// Package media wraps the ffmpeg and ffprobe command-line tools behind a
// small toolkit of typed operations. Every edit stage that touches video
// bytes goes through this package; nothing else in the service shells out.
package media

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/storycut/edit-service/internal/core/model"
)

// Runner executes ffmpeg and ffprobe. The binary paths are injectable so
// tests and containers with non-standard layouts can redirect them.
type Runner struct {
	FFmpegPath  string
	FFprobePath string
}

// NewRunner returns a Runner that resolves the tools through PATH.
func NewRunner() *Runner {
	return &Runner{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}
}

// FFmpeg runs ffmpeg with the given arguments, capturing stderr for error
// reporting. ffmpeg writes its progress chatter to stderr, so the captured
// text is only surfaced on failure.
func (r *Runner) FFmpeg(ctx context.Context, args ...string) error {
	full := append([]string{"-y", "-hide_banner"}, args...)
	cmd := exec.CommandContext(ctx, r.FFmpegPath, full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	slog.DebugContext(ctx, "running ffmpeg", "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return &model.SubprocessError{Tool: "ffmpeg", Args: args, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// FFprobe runs ffprobe and returns its trimmed stdout.
func (r *Runner) FFprobe(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.FFprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", &model.SubprocessError{Tool: "ffprobe", Args: args, Stderr: stderr.String(), Err: err}
	}
	return strings.TrimSpace(stdout.String()), nil
}
