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

package inference

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"math"
)

// MusicChunk is one synthesized audio chunk as normalized mono samples.
type MusicChunk struct {
	SampleRate int
	Samples    []float64
}

// MusicGenerator synthesizes instrumental audio from a text prompt. The
// sidecar returns 16-bit PCM; the client converts it to float samples in
// [-1, 1] for the DSP stages.
type MusicGenerator interface {
	Generate(ctx context.Context, prompt string, seconds float64) (*MusicChunk, error)
}

type musicClient struct {
	baseClient
}

// NewMusicGenerator builds the client for the music-synthesis sidecar.
func NewMusicGenerator(baseURL string, timeoutSeconds int) MusicGenerator {
	return &musicClient{newBaseClient(baseURL, timeoutSeconds)}
}

type musicRequest struct {
	Prompt  string  `json:"prompt"`
	Seconds float64 `json:"seconds"`
}

type musicResponse struct {
	SampleRate int    `json:"sample_rate"`
	PCM16      string `json:"pcm16"` // base64, little-endian int16 mono
}

func (m *musicClient) Generate(ctx context.Context, prompt string, seconds float64) (*MusicChunk, error) {
	var resp musicResponse
	if err := m.postJSON(ctx, "/v1/music", &musicRequest{Prompt: prompt, Seconds: seconds}, &resp); err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(resp.PCM16)
	if err != nil {
		return nil, err
	}
	samples := make([]float64, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float64(v) / math.MaxInt16
	}
	return &MusicChunk{SampleRate: resp.SampleRate, Samples: samples}, nil
}
