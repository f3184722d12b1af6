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

// This file holds the typed ffmpeg operations the edit stages compose. Each
// function builds one argument list; policy (which bitrate, which ranges)
// stays with the callers.
package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CutRateFactor scales the source bitrate for re-encoded cuts: cut segments
// are re-encoded at 90% of the source video bitrate.
const CutRateFactor = 0.9

// StreamCopy remuxes the input without re-encoding.
func (r *Runner) StreamCopy(ctx context.Context, in, out string) error {
	return r.FFmpeg(ctx, "-i", in, "-c", "copy", "-movflags", "+faststart", out)
}

// CutSegment re-encodes one time range of the input. Re-encoding instead of
// stream copy gives frame-accurate boundaries; the output is capped at 30fps
// and 90% of the probed source bitrate.
func (r *Runner) CutSegment(ctx context.Context, in string, start, end float64, videoBitrate string, out string) error {
	rate, err := strconv.Atoi(videoBitrate)
	if err != nil {
		rate, _ = strconv.Atoi(DefaultVideoBitrate)
	}
	target := int(float64(rate) * CutRateFactor)
	return r.FFmpeg(ctx,
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", in,
		"-c:v", "libx264",
		"-b:v", strconv.Itoa(target),
		"-r", "30",
		"-c:a", "aac",
		"-movflags", "+faststart",
		out)
}

// Concat joins files losslessly with the concat demuxer. All inputs must
// share codec parameters, which holds because they come from the same
// CutSegment or segment-encoder settings.
func (r *Runner) Concat(ctx context.Context, inputs []string, out string) error {
	listFile, err := os.CreateTemp(filepath.Dir(out), "concat-*.txt")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(listFile.Name()) }()
	var list strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		fmt.Fprintf(&list, "file '%s'\n", abs)
	}
	if _, err = listFile.WriteString(list.String()); err != nil {
		_ = listFile.Close()
		return err
	}
	if err = listFile.Close(); err != nil {
		return err
	}
	return r.FFmpeg(ctx,
		"-f", "concat",
		"-safe", "0",
		"-i", listFile.Name(),
		"-c", "copy",
		out)
}

// StripAudio writes a copy of the input without its audio streams.
func (r *Runner) StripAudio(ctx context.Context, in, out string) error {
	return r.FFmpeg(ctx, "-i", in, "-c:v", "copy", "-an", out)
}

// DeliveryEncode re-encodes a finished render at the given bitrate with
// faststart, normalizing segment-encoded output into one uniform file.
func (r *Runner) DeliveryEncode(ctx context.Context, in, out, videoBitrate string) error {
	return r.FFmpeg(ctx,
		"-i", in,
		"-c:v", "libx264",
		"-b:v", NormalizeBitrate(videoBitrate, DefaultVideoBitrate),
		"-c:a", "aac",
		"-movflags", "+faststart",
		out)
}

// AttachAudio muxes an audio file onto a video. The video stream is copied;
// -shortest trims whichever track runs longer.
func (r *Runner) AttachAudio(ctx context.Context, video, audio, out string) error {
	return r.FFmpeg(ctx,
		"-i", video,
		"-i", audio,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		out)
}

// ReplaceAudio muxes mixed audio onto the video at AAC 192k, used after the
// BGM mix where the new track already contains the original voices.
func (r *Runner) ReplaceAudio(ctx context.Context, video, audio, out string) error {
	return r.FFmpeg(ctx,
		"-i", video,
		"-i", audio,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		out)
}

// MixTracks mixes two audio files into one AAC 192k track. The first input
// keeps its duration; the mix does not normalize, since the music track is
// already gain-planned.
func (r *Runner) MixTracks(ctx context.Context, a, b, out string) error {
	return r.FFmpeg(ctx,
		"-i", a,
		"-i", b,
		"-filter_complex", "[0:a][1:a]amix=inputs=2:duration=first:normalize=0[mix]",
		"-map", "[mix]",
		"-c:a", "aac",
		"-b:a", "192k",
		out)
}

// ExtractWAV writes the audio track as mono 16kHz 16-bit PCM, the format
// both the voice detector and the transcriber expect.
func (r *Runner) ExtractWAV(ctx context.Context, in, out string) error {
	return r.FFmpeg(ctx,
		"-i", in,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		out)
}

// BurnSubtitles renders an ASS subtitle file into the video. The first
// attempt uses default hardware-assisted decode; if that fails (common on
// headless containers), it retries with software decode.
func (r *Runner) BurnSubtitles(ctx context.Context, in, assPath, out string) error {
	filter := fmt.Sprintf("ass=%s", escapeFilterPath(assPath))
	err := r.FFmpeg(ctx,
		"-i", in,
		"-vf", filter,
		"-c:a", "copy",
		out)
	if err == nil {
		return nil
	}
	return r.FFmpeg(ctx,
		"-hwaccel", "none",
		"-i", in,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "copy",
		out)
}

// Thumbnail extracts a single frame near the start of the video as a JPEG.
func (r *Runner) Thumbnail(ctx context.Context, in, out string) error {
	return r.FFmpeg(ctx,
		"-ss", "1",
		"-i", in,
		"-frames:v", "1",
		"-q:v", "2",
		out)
}

// escapeFilterPath escapes characters that are significant inside an ffmpeg
// filter argument.
func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, `\`, `\\`)
	p = strings.ReplaceAll(p, `:`, `\:`)
	p = strings.ReplaceAll(p, `'`, `\'`)
	return p
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
