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
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storycut/edit-service/internal/core/model"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voice.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF-fake-payload"), 0o640))
	return path
}

func TestTranscribeUploadsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transcribe", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "ko", r.FormValue("language"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "voice.wav", header.Filename)
		body, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "RIFF-fake-payload", string(body))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"segments": []map[string]any{
				{"start": 0.0, "end": 2.5, "text": "안녕하세요", "no_speech_prob": 0.1, "avg_logprob": -0.4},
			},
		})
	}))
	defer server.Close()

	client := NewTranscriber(server.URL, 5)
	segments, err := client.Transcribe(context.Background(), writeTempAudio(t), "ko")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "안녕하세요", segments[0].Text)
	assert.Equal(t, 2.5, segments[0].End)
	assert.Equal(t, 0.1, segments[0].NoSpeechProb)
}

func TestAnalyzeJPEGPostsInlineImage(t *testing.T) {
	frame := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/faces:inline", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, base64.StdEncoding.EncodeToString(frame), body["image"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"faces": []map[string]any{
				{"box": []int{10, 20, 110, 140}, "embedding": []float64{0.1, 0.2}, "score": 0.98},
			},
		})
	}))
	defer server.Close()

	client := NewFaceAnalyzer(server.URL, 5)
	faces, err := client.AnalyzeJPEG(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.Equal(t, [4]int{10, 20, 110, 140}, faces[0].Box)
	assert.Equal(t, 0.98, faces[0].Score)
}

func TestInferenceErrorShaping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewTranscriber(server.URL, 5)
	_, err := client.Transcribe(context.Background(), writeTempAudio(t), "ko")
	require.Error(t, err)

	var serviceErr *model.ExternalServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, http.StatusServiceUnavailable, serviceErr.StatusCode)
	assert.Contains(t, serviceErr.Body, "model overloaded")
}

func TestInferenceMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	client := NewFaceAnalyzer(server.URL, 5)
	_, err := client.AnalyzeJPEG(context.Background(), []byte{0x01})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed inference response")
}
