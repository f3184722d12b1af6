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
)

// Face is one detected face: a pixel bounding box and an identity embedding
// suitable for cosine comparison.
type Face struct {
	// Box holds [x1, y1, x2, y2] in pixel coordinates of the analyzed image.
	Box       [4]int    `json:"box"`
	Embedding []float64 `json:"embedding"`
	Score     float64   `json:"score"`
}

// FaceAnalyzer detects faces and extracts identity embeddings from still
// images and raw video frames.
type FaceAnalyzer interface {
	// AnalyzeFile runs detection on an image file.
	AnalyzeFile(ctx context.Context, imagePath string) ([]Face, error)
	// AnalyzeJPEG runs detection on an in-memory JPEG, which is how the
	// mosaic pipeline submits sampled video frames.
	AnalyzeJPEG(ctx context.Context, jpegData []byte) ([]Face, error)
}

type faceClient struct {
	baseClient
}

// NewFaceAnalyzer builds the client for the face-analysis sidecar.
func NewFaceAnalyzer(baseURL string, timeoutSeconds int) FaceAnalyzer {
	return &faceClient{newBaseClient(baseURL, timeoutSeconds)}
}

type faceResponse struct {
	Faces []Face `json:"faces"`
}

func (f *faceClient) AnalyzeFile(ctx context.Context, imagePath string) ([]Face, error) {
	var resp faceResponse
	if err := f.postFile(ctx, "/v1/faces", imagePath, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Faces, nil
}

func (f *faceClient) AnalyzeJPEG(ctx context.Context, jpegData []byte) ([]Face, error) {
	body := map[string]string{
		"image": base64.StdEncoding.EncodeToString(jpegData),
	}
	var resp faceResponse
	if err := f.postJSON(ctx, "/v1/faces:inline", body, &resp); err != nil {
		return nil, err
	}
	return resp.Faces, nil
}
