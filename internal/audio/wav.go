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

// Package audio implements the sample-level processing of the BGM mixing
// stage: WAV I/O, gain and fade primitives, voice activity detection, and
// the ducking plan that rides the music under speech. All processing is
// mono float64 in [-1, 1]; conversion to and from 16-bit WAV happens only
// at the file boundary.
package audio

import (
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAVMono decodes a WAV file into mono float samples. Multi-channel
// sources are downmixed by averaging.
func ReadWAVMono(path string) (samples []float64, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = f.Close() }()

	decoder := wav.NewDecoder(f)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels == 0 {
		return nil, 0, fmt.Errorf("no pcm data in %s", path)
	}

	channels := buf.Format.NumChannels
	scale := math.Pow(2, float64(buf.SourceBitDepth-1))
	if scale == 0 {
		scale = math.MaxInt16
	}
	frames := len(buf.Data) / channels
	samples = make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch]) / scale
		}
		samples[i] = sum / float64(channels)
	}
	return samples, buf.Format.SampleRate, nil
}

// WriteWAVMono encodes mono float samples as 16-bit PCM. Samples outside
// [-1, 1] are clipped.
func WriteWAVMono(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	encoder := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf.Data[i] = int(s * math.MaxInt16)
	}
	if err = encoder.Write(buf); err != nil {
		_ = encoder.Close()
		_ = f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err = encoder.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
