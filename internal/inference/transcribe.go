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

	"github.com/storycut/edit-service/internal/core/model"
)

// Transcriber turns an audio track into timed transcript segments with the
// per-segment confidence statistics the subtitle stage filters on.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, language string) ([]model.TranscriptSegment, error)
}

type transcribeClient struct {
	baseClient
}

// NewTranscriber builds the client for the speech-to-text sidecar.
func NewTranscriber(baseURL string, timeoutSeconds int) Transcriber {
	return &transcribeClient{newBaseClient(baseURL, timeoutSeconds)}
}

type transcribeResponse struct {
	Segments []model.TranscriptSegment `json:"segments"`
}

func (t *transcribeClient) Transcribe(ctx context.Context, audioPath string, language string) ([]model.TranscriptSegment, error) {
	fields := map[string]string{"language": language}
	var resp transcribeResponse
	if err := t.postFile(ctx, "/v1/transcribe", audioPath, fields, &resp); err != nil {
		return nil, err
	}
	return resp.Segments, nil
}
