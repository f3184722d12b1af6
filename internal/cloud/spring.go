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

// This file implements the client for the metadata service that owns video
// records. The edit service holds no database of its own: the source video
// URL is fetched from the metadata service at the start of a run and the
// finished render is registered back at the end. Every endpoint wraps its payload in the shared
// {isSuccess, code, message, result} envelope.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/storycut/edit-service/internal/core/model"
)

// SpringClient calls the external metadata service. AuthToken handling is
// per-call: the user's bearer token rides along with each pipeline request
// so record ownership is enforced by the metadata service, not here.
type SpringClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpringClient builds a client for the configured base URL.
func NewSpringClient(cfg *Spring) *SpringClient {
	timeout := time.Duration(cfg.TimeoutInSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SpringClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// springEnvelope mirrors the metadata service's response wrapper with the
// payload left raw for typed decoding per endpoint.
type springEnvelope struct {
	IsSuccess bool            `json:"isSuccess"`
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	Result    json.RawMessage `json:"result"`
}

// FetchVideo retrieves the record for a source video, including the storage
// URL the pipeline downloads it from.
func (s *SpringClient) FetchVideo(ctx context.Context, authToken string, videoID int64) (*model.VideoRecord, error) {
	url := fmt.Sprintf("%s/api/v1/videos/%d", s.baseURL, videoID)
	var record model.VideoRecord
	if err := s.call(ctx, http.MethodGet, url, authToken, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// RegisterVideo creates the record for a render that is about to be
// produced and returns it with its new VideoID. The record has no storage
// URLs yet; CompleteVideo fills those in once the upload has happened. The
// metadata service links the new record to the original through
// OriginalVideoID.
func (s *SpringClient) RegisterVideo(ctx context.Context, authToken string, req *model.RegisterRequest) (*model.VideoRecord, error) {
	url := fmt.Sprintf("%s/api/v1/videos", s.baseURL)
	var record model.VideoRecord
	if err := s.call(ctx, http.MethodPost, url, authToken, req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// CompleteVideo attaches the uploaded render and thumbnail URLs to a
// registered record and returns the finished record.
func (s *SpringClient) CompleteVideo(ctx context.Context, authToken string, videoID int64, videoURL, thumbnailURL string) (*model.VideoRecord, error) {
	url := fmt.Sprintf("%s/api/v1/videos/%d/complete", s.baseURL, videoID)
	body := &model.CompleteRequest{VideoURL: videoURL, ThumbnailURL: thumbnailURL}
	var record model.VideoRecord
	if err := s.call(ctx, http.MethodPost, url, authToken, body, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// call performs one request/response cycle against the metadata service,
// unwrapping the envelope and decoding the result into out when non-nil.
func (s *SpringClient) call(ctx context.Context, method, url, authToken string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("metadata service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &model.ExternalServiceError{Service: "spring", StatusCode: resp.StatusCode, Body: string(payload)}
	}

	var envelope springEnvelope
	if err = json.Unmarshal(payload, &envelope); err != nil {
		return fmt.Errorf("malformed metadata service response: %w", err)
	}
	if !envelope.IsSuccess {
		return &model.ExternalServiceError{Service: "spring", StatusCode: resp.StatusCode, Body: envelope.Message}
	}
	if out != nil && len(envelope.Result) > 0 {
		if err = json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("malformed metadata service result: %w", err)
		}
	}
	return nil
}
