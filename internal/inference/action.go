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
	"strconv"

	"github.com/storycut/edit-service/internal/core/model"
)

// ActionClassifier labels what happens in a video, window by window. The
// cut-selection stage feeds the resulting action log to a language model to
// pick the ranges that match the user's prompt.
type ActionClassifier interface {
	Classify(ctx context.Context, videoPath string, windowSeconds float64) ([]model.ActionWindow, error)
}

type actionClient struct {
	baseClient
}

// NewActionClassifier builds the client for the action-recognition sidecar.
func NewActionClassifier(baseURL string, timeoutSeconds int) ActionClassifier {
	return &actionClient{newBaseClient(baseURL, timeoutSeconds)}
}

type actionResponse struct {
	Windows []model.ActionWindow `json:"windows"`
}

func (a *actionClient) Classify(ctx context.Context, videoPath string, windowSeconds float64) ([]model.ActionWindow, error) {
	fields := map[string]string{
		"window_seconds": strconv.FormatFloat(windowSeconds, 'f', -1, 64),
	}
	var resp actionResponse
	if err := a.postFile(ctx, "/v1/actions", videoPath, fields, &resp); err != nil {
		return nil, err
	}
	return resp.Windows, nil
}
