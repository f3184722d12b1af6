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

// Package model defines the core data structures of the edit service. This
// file holds the per-invocation pipeline configuration and the request and
// response shapes exchanged with the HTTP surface, the Pub/Sub trigger, and
// the Spring metadata service.
package model

// MaxTargetImages caps the number of reference face images one mosaic run
// accepts.
const MaxTargetImages = 2

// PipelineRequest is the immutable per-invocation configuration of one edit
// pipeline run. It is assembled once from the transport payload and never
// mutated after the run starts.
type PipelineRequest struct {
	VideoID     int64    `json:"videoId"`               // Spring's identifier for the source video.
	Prompt      string   `json:"prompt,omitempty"`      // Natural-language cut-selection prompt; empty disables the cut stage.
	Images      []string `json:"images,omitempty"`      // Staged target face image paths (≤2); empty disables the mosaic stage.
	Subtitle    bool     `json:"subtitle"`              // Whether to burn subtitles.
	MusicPrompt string   `json:"musicPrompt,omitempty"` // Text prompt for BGM generation; empty with AutoMusic false disables the BGM stage.
	AutoMusic   bool     `json:"autoMusic,omitempty"`   // Derive a music prompt from the video's classified actions.
	DeviceToken string   `json:"deviceToken,omitempty"` // FCM device token for terminal success/failure notification.
	AuthToken   string   `json:"-"`                     // Bearer token forwarded to Spring; never serialized.
}

// WantsCut reports whether the cut-selection stage runs for this request.
func (r *PipelineRequest) WantsCut() bool { return r.Prompt != "" }

// WantsMusic reports whether the BGM stage runs for this request.
func (r *PipelineRequest) WantsMusic() bool { return r.MusicPrompt != "" || r.AutoMusic }

// WantsMosaic reports whether the face mosaic stage runs for this request.
func (r *PipelineRequest) WantsMosaic() bool { return len(r.Images) > 0 }

// TargetImages returns at most MaxTargetImages staged image paths.
func (r *PipelineRequest) TargetImages() []string {
	if len(r.Images) > MaxTargetImages {
		return r.Images[:MaxTargetImages]
	}
	return r.Images
}

// Envelope is the uniform response wrapper of the HTTP surface.
type Envelope struct {
	IsSuccess bool        `json:"isSuccess"`
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Result    interface{} `json:"result"`
}

// NewSuccessEnvelope wraps a result in a successful response envelope.
func NewSuccessEnvelope(code int, message string, result interface{}) *Envelope {
	return &Envelope{IsSuccess: true, Code: code, Message: message, Result: result}
}

// NewErrorEnvelope builds a failure envelope with a nil result.
func NewErrorEnvelope(code int, message string) *Envelope {
	return &Envelope{IsSuccess: false, Code: code, Message: message, Result: nil}
}

// VideoRecord mirrors the Spring metadata service's video resource. Only the
// fields the pipeline sequences on are modeled; Spring owns the full schema.
type VideoRecord struct {
	VideoID      int64  `json:"videoId"`
	MemberID     int64  `json:"memberId,omitempty"`
	VideoName    string `json:"videoName"`
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnail,omitempty"`
	IsBlur       bool   `json:"isBlur"`
	CreatedAt    string `json:"createdAt,omitempty"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// RegisterRequest is the payload for registering a render with Spring
// before upload. Storage URLs are attached later via CompleteRequest.
type RegisterRequest struct {
	VideoName       string `json:"videoName"`
	OriginalVideoID int64  `json:"originalVideoId,omitempty"`
	IsBlur          bool   `json:"isBlur"`
}

// CompleteRequest attaches the uploaded render and thumbnail URLs to a
// registered record.
type CompleteRequest struct {
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnail"`
}
