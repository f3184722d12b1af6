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

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storycut/edit-service/internal/core/model"
)

func newSpringTestClient(handler http.HandlerFunc) (*SpringClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewSpringClient(&Spring{BaseURL: server.URL, TimeoutInSeconds: 5})
	return client, server
}

func TestFetchVideoUnwrapsEnvelope(t *testing.T) {
	client, server := newSpringTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/videos/42", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isSuccess": true,
			"code":      "COMMON200",
			"message":   "success",
			"result": map[string]any{
				"videoId":   42,
				"videoName": "vacation.mp4",
				"videoUrl":  "https://cdn.example.com/videos/vacation.mp4",
			},
		})
	})
	defer server.Close()

	record, err := client.FetchVideo(context.Background(), "token-abc", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), record.VideoID)
	assert.Equal(t, "vacation.mp4", record.VideoName)
	assert.Equal(t, "https://cdn.example.com/videos/vacation.mp4", record.VideoURL)
}

func TestRegisterVideoPostsPayload(t *testing.T) {
	client, server := newSpringTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/videos", r.URL.Path)

		var payload model.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "render.mp4", payload.VideoName)
		assert.True(t, payload.IsBlur)
		assert.Equal(t, int64(42), payload.OriginalVideoID)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"isSuccess": true,
			"code":      "COMMON200",
			"message":   "success",
			"result":    map[string]any{"videoId": 77, "videoName": "render.mp4"},
		})
	})
	defer server.Close()

	record, err := client.RegisterVideo(context.Background(), "token", &model.RegisterRequest{
		VideoName:       "render.mp4",
		OriginalVideoID: 42,
		IsBlur:          true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), record.VideoID)
}

func TestCompleteVideoAttachesURLs(t *testing.T) {
	client, server := newSpringTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/videos/77/complete", r.URL.Path)

		var payload model.CompleteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "https://cdn.example.com/videos/render.mp4", payload.VideoURL)
		assert.Equal(t, "https://cdn.example.com/thumbnails/render.jpg", payload.ThumbnailURL)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"isSuccess": true,
			"code":      "COMMON200",
			"message":   "success",
			"result": map[string]any{
				"videoId":   77,
				"videoUrl":  payload.VideoURL,
				"thumbnail": payload.ThumbnailURL,
			},
		})
	})
	defer server.Close()

	record, err := client.CompleteVideo(context.Background(), "token", 77,
		"https://cdn.example.com/videos/render.mp4",
		"https://cdn.example.com/thumbnails/render.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(77), record.VideoID)
	assert.Equal(t, "https://cdn.example.com/videos/render.mp4", record.VideoURL)
}

func TestSpringEnvelopeFailure(t *testing.T) {
	client, server := newSpringTestClient(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isSuccess": false,
			"code":      "VIDEO404",
			"message":   "video not found",
		})
	})
	defer server.Close()

	_, err := client.FetchVideo(context.Background(), "token", 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video not found")
}

func TestSpringHTTPError(t *testing.T) {
	client, server := newSpringTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	defer server.Close()

	_, err := client.FetchVideo(context.Background(), "token", 1)
	require.Error(t, err)
	var serviceErr *model.ExternalServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, http.StatusInternalServerError, serviceErr.StatusCode)
	assert.Equal(t, "spring", serviceErr.Service)
}
