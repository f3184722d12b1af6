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

// This file holds the ffprobe-backed inspection helpers. Probing failures
// for optional attributes (bitrates) fall back to conservative defaults so
// a source with missing metadata still renders.
package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Default bitrates used when the source stream does not report one.
const (
	DefaultVideoBitrate = "3000000"
	DefaultAudioBitrate = "128000"
)

// Duration returns the container duration in seconds.
func (r *Runner) Duration(ctx context.Context, path string) (float64, error) {
	out, err := r.FFprobe(ctx,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable duration %q for %s: %w", out, path, err)
	}
	return d, nil
}

// Resolution returns the pixel width and height of the first video stream.
func (r *Runner) Resolution(ctx context.Context, path string) (width, height int, err error) {
	out, err := r.FFprobe(ctx,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path)
	if err != nil {
		return 0, 0, err
	}
	parts := strings.Split(out, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unparseable resolution %q for %s", out, path)
	}
	if width, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, err
	}
	if height, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

// FrameRate returns the average frame rate of the first video stream.
// ffprobe reports it as a rational such as "30000/1001".
func (r *Runner) FrameRate(ctx context.Context, path string) (float64, error) {
	out, err := r.FFprobe(ctx,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, err
	}
	return ParseRational(out)
}

// FrameCount returns the number of video frames, counting packets when the
// container does not carry nb_frames.
func (r *Runner) FrameCount(ctx context.Context, path string) (int, error) {
	out, err := r.FFprobe(ctx,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("unparseable frame count %q for %s: %w", out, path, err)
	}
	return n, nil
}

// HasAudioStream reports whether the container carries any audio stream.
func (r *Runner) HasAudioStream(ctx context.Context, path string) (bool, error) {
	out, err := r.FFprobe(ctx,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=codec_type",
		"-of", "csv=p=0",
		path)
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "audio"), nil
}

// VideoBitrate returns the video stream bitrate as a string ready for an
// ffmpeg -b:v argument, falling back to DefaultVideoBitrate when the stream
// reports "N/A" or nothing.
func (r *Runner) VideoBitrate(ctx context.Context, path string) string {
	return r.bitrate(ctx, path, "v:0", DefaultVideoBitrate)
}

// AudioBitrate returns the audio stream bitrate, falling back to
// DefaultAudioBitrate.
func (r *Runner) AudioBitrate(ctx context.Context, path string) string {
	return r.bitrate(ctx, path, "a:0", DefaultAudioBitrate)
}

func (r *Runner) bitrate(ctx context.Context, path, stream, fallback string) string {
	out, err := r.FFprobe(ctx,
		"-v", "error",
		"-select_streams", stream,
		"-show_entries", "stream=bit_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return fallback
	}
	return NormalizeBitrate(out, fallback)
}

// NormalizeBitrate validates a probed bitrate string, returning fallback for
// empty or non-numeric values such as "N/A".
func NormalizeBitrate(probed, fallback string) string {
	probed = strings.TrimSpace(probed)
	if probed == "" {
		return fallback
	}
	if _, err := strconv.Atoi(probed); err != nil {
		return fallback
	}
	return probed
}

// ParseRational parses an ffprobe rational ("30000/1001") or plain decimal
// into a float.
func ParseRational(in string) (float64, error) {
	in = strings.TrimSpace(in)
	if num, den, found := strings.Cut(in, "/"); found {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable rational %q: %w", in, err)
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("unparseable rational %q", in)
		}
		return n / d, nil
	}
	v, err := strconv.ParseFloat(in, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable rational %q: %w", in, err)
	}
	return v, nil
}
