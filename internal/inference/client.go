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

// Package inference holds the clients for the ML sidecar services the edit
// pipeline depends on: face analysis, speech transcription, music synthesis,
// and action classification. The models themselves are opaque; each client
// speaks a small HTTP contract (multipart upload in, JSON out) and maps the
// response onto pipeline types. Keeping the capabilities behind interfaces
// lets tests substitute deterministic fakes for GPU-backed services.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/storycut/edit-service/internal/core/model"
)

// baseClient carries the shared HTTP plumbing of every sidecar client.
type baseClient struct {
	baseURL    string
	httpClient *http.Client
}

func newBaseClient(baseURL string, timeoutSeconds int) baseClient {
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return baseClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// postJSON sends a JSON body and decodes the JSON response into out.
func (c *baseClient) postJSON(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

// postFile streams a local file as a multipart form alongside optional extra
// string fields, then decodes the JSON response into out. The form is
// buffered through a pipe so large media never sits in memory twice.
func (c *baseClient) postFile(ctx context.Context, path string, filePath string, fields map[string]string, out any) error {
	source, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	pipeReader, pipeWriter := io.Pipe()
	form := multipart.NewWriter(pipeWriter)
	go func() {
		var werr error
		defer func() { _ = pipeWriter.CloseWithError(werr) }()
		for key, value := range fields {
			if werr = form.WriteField(key, value); werr != nil {
				return
			}
		}
		part, perr := form.CreateFormFile("file", filepath.Base(filePath))
		if perr != nil {
			werr = perr
			return
		}
		if _, werr = io.Copy(part, source); werr != nil {
			return
		}
		werr = form.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pipeReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	return c.do(req, path, out)
}

func (c *baseClient) do(req *http.Request, path string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inference call %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &model.ExternalServiceError{Service: "inference" + path, StatusCode: resp.StatusCode, Body: string(payload)}
	}
	if out != nil {
		if err = json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("malformed inference response from %s: %w", path, err)
		}
	}
	return nil
}
