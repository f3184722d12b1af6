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

// This file gives the mosaic pipeline frame-level access to video. Frames
// move through ffmpeg rawvideo pipes as packed bgr24, three bytes per
// pixel, so a segment worker can read, redact, and re-encode frames without
// any intermediate image files.
package media

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/storycut/edit-service/internal/core/model"
)

// Frame is one decoded video frame in packed bgr24 layout.
type Frame struct {
	Width  int
	Height int
	Data   []byte // len == Width*Height*3
}

// FrameDecoder streams decoded frames from a time-bounded slice of a video.
type FrameDecoder struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	width  int
	height int
}

// NewFrameDecoder starts an ffmpeg process decoding frames startFrame..endFrame
// (half-open, in frame numbers at the given fps) of the input into raw
// bgr24 on its stdout.
func (r *Runner) NewFrameDecoder(ctx context.Context, in string, width, height int, fps float64, startFrame, endFrame int) (*FrameDecoder, error) {
	startSec := float64(startFrame) / fps
	frames := endFrame - startFrame
	cmd := exec.CommandContext(ctx, r.FFmpegPath,
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(startSec),
		"-i", in,
		"-frames:v", strconv.Itoa(frames),
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, &model.SubprocessError{Tool: "ffmpeg", Args: cmd.Args[1:], Err: err}
	}
	return &FrameDecoder{cmd: cmd, stdout: stdout, width: width, height: height}, nil
}

// Next reads one frame, reusing buf when it is large enough. It returns
// io.EOF when the stream is exhausted.
func (d *FrameDecoder) Next(buf []byte) (*Frame, error) {
	size := d.width * d.height * 3
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	buf = buf[:size]
	if _, err := io.ReadFull(d.stdout, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return nil, err
	}
	return &Frame{Width: d.width, Height: d.height, Data: buf}, nil
}

// Close drains and reaps the decoder process.
func (d *FrameDecoder) Close() error {
	_, _ = io.Copy(io.Discard, d.stdout)
	_ = d.stdout.Close()
	return d.cmd.Wait()
}

// FrameEncoder streams raw bgr24 frames into an ffmpeg process that encodes
// them as H.264 MP4.
type FrameEncoder struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// NewFrameEncoder starts an encoder writing to the out path at the given
// geometry and frame rate. Segment outputs deliberately carry no audio; the
// original track is reattached after concatenation.
func (r *Runner) NewFrameEncoder(ctx context.Context, out string, width, height int, fps float64) (*FrameEncoder, error) {
	cmd := exec.CommandContext(ctx, r.FFmpegPath,
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", formatSeconds(fps),
		"-i", "-",
		"-an",
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		out)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, &model.SubprocessError{Tool: "ffmpeg", Args: cmd.Args[1:], Err: err}
	}
	return &FrameEncoder{cmd: cmd, stdin: stdin}, nil
}

// Write appends one frame to the encoder input.
func (e *FrameEncoder) Write(frame *Frame) error {
	_, err := e.stdin.Write(frame.Data)
	return err
}

// Close finishes the stream and waits for the encoder to flush the file.
func (e *FrameEncoder) Close() error {
	if err := e.stdin.Close(); err != nil {
		_ = e.cmd.Wait()
		return err
	}
	return e.cmd.Wait()
}
