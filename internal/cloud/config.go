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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, and the clients for every external collaborator
// the edit pipeline talks to: object storage, the Spring metadata service,
// FCM, Pub/Sub, the text-generation models, and the ML inference sidecars.
//
// This file centralizes the configuration structs. Values are layered: a
// base .env.toml is decoded first, then an environment-specific
// .env.<runtime>.toml overwrites it (see LoadConfig in utils.go).
package cloud

import "google.golang.org/genai"

// Storage backends selectable through the [storage] section.
const (
	StorageBackendGCS = "gcs"
	StorageBackendS3  = "s3"
)

// DefaultSafetySettings disables content blocking for the text-generation
// models. Prompts are assembled in-process from classifier output and user
// text, so the input is trusted.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Storage configures the object-storage backend and the local staging
// directories every pipeline run stages intermediate files in.
type Storage struct {
	Backend         string `toml:"backend"`           // "gcs" or "s3"; selects the ObjectStore implementation.
	Bucket          string `toml:"bucket"`            // Bucket name for the selected backend.
	Region          string `toml:"region"`            // Region for S3; ignored by GCS.
	PublicURLPrefix string `toml:"public_url_prefix"` // Optional override for the public URL of uploaded objects (e.g. a CDN host).
	VideoDir        string `toml:"video_dir"`         // Local staging directory for video assets.
	ImageDir        string `toml:"image_dir"`         // Local staging directory for uploaded target images.
	SegmentDir      string `toml:"segment_dir"`       // Local staging directory for mosaic segment files.
	SignerEmail     string `toml:"signer_email"`      // Service account used to sign GCS URLs.
	PresignTTLSec   int    `toml:"presign_ttl_seconds"`
}

// Spring configures the client for the external metadata service that owns
// video records.
type Spring struct {
	BaseURL          string `toml:"base_url"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// FCM configures the push-notification sender.
type FCM struct {
	CredentialsFile string `toml:"credentials_file"` // Firebase service-account JSON.
}

// InferenceEndpoint configures one ML inference sidecar.
type InferenceEndpoint struct {
	URL              string `toml:"url"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Inference groups every opaque ML capability the pipeline invokes. Model
// internals are owned by the sidecars; only the HTTP contracts live here.
type Inference struct {
	Face       InferenceEndpoint `toml:"face"`       // Face detection + embedding extraction.
	Transcribe InferenceEndpoint `toml:"transcribe"` // Speech-to-text with per-segment statistics.
	Music      InferenceEndpoint `toml:"music"`      // Text-to-music PCM synthesis.
	Action     InferenceEndpoint `toml:"action"`     // Video action classification.
}

// VertexAiLLMModel configures one text-generation model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"`
	RateLimit          int     `toml:"rate_limit"` // Requests per second.
}

// TopicSubscription configures one Pub/Sub subscription used as an async
// pipeline trigger.
type TopicSubscription struct {
	Name             string `toml:"name"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// PromptTemplates holds the text templates sent to the text-generation
// models. Templates receive stage-specific data (classification logs, the
// user prompt) through text/template.
type PromptTemplates struct {
	CutSelection string `toml:"cut_selection"` // Selects relevant time ranges from an action log.
	MusicStyle   string `toml:"music_style"`   // Phrases a one-sentence music prompt from user text.
	MusicTheme   string `toml:"music_theme"`   // Infers a theme + music prompt from top action labels.
}

// Pipeline holds the tunable numeric policy of the edit stages. Defaults
// match the documented behavior; deployments override selectively.
type Pipeline struct {
	DetectInterval      int     `toml:"detect_interval"`       // Frames between face re-detections (default 5).
	NumSegments         int     `toml:"num_segments"`          // Parallel mosaic segments (default 3).
	ConfidenceThreshold float64 `toml:"confidence_threshold"`  // Cut-selector action filter (default 0.7).
	WindowSeconds       float64 `toml:"window_seconds"`        // Action classification window (default 5).
	MusicSegmentSeconds float64 `toml:"music_segment_seconds"` // Music synthesis chunk length (default 20).
	VADAggressiveness   int     `toml:"vad_aggressiveness"`    // Voice detector aggressiveness 0-3 (default 3).

	Ducking Ducking `toml:"ducking"`
}

// Ducking is the named, tunable gain-automation policy of the BGM mixer.
// GapCarryover preserves the previous speech-ducked level through short
// silences instead of restoring full music volume, which avoids audible
// pumping between close speech regions.
type Ducking struct {
	GapThresholdSeconds float64 `toml:"gap_threshold_seconds"` // Silences longer than this get SilenceGain (default 2.0).
	GapCarryover        bool    `toml:"gap_carryover"`         // Reuse previous speech gain for short silences (default true).
	SilenceGainDB       float64 `toml:"silence_gain_db"`       // Gain for long silences (default -10).
	TailGainDB          float64 `toml:"tail_gain_db"`          // Flat gain after the last speech region (default -5).
	VoiceFloorDB        float64 `toml:"voice_floor_db"`        // Minimum duck depth during speech (default 15).
	VoiceOffsetDB       float64 `toml:"voice_offset_db"`       // Added to the voice chunk's dBFS to set duck depth (default 35).
	MakeupGainDB        float64 `toml:"makeup_gain_db"`        // Applied after final normalization (default 5).
	FadeMillis          int     `toml:"fade_millis"`           // Fade at every gain-segment boundary (default 300).
}

// Config is the top-level configuration aggregate.
type Config struct {
	Application struct {
		Name            string `toml:"name"`
		GoogleProjectId string `toml:"google_project_id"`
		GoogleLocation  string `toml:"location"`
		ThreadPoolSize  int    `toml:"thread_pool_size"` // Worker pool size for parallel stage work.
		Port            int    `toml:"port"`
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	Spring             Spring                       `toml:"spring"`
	FCM                FCM                          `toml:"fcm"`
	Inference          Inference                    `toml:"inference"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	Pipeline           Pipeline                     `toml:"pipeline"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`
}

// NewConfig creates a Config with its map fields initialized and the
// pipeline policy set to the documented defaults, so a partial TOML overlay
// still yields a runnable configuration.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
	c.Application.ThreadPoolSize = 3
	c.Application.Port = 8080
	c.Storage.Backend = StorageBackendGCS
	c.Storage.VideoDir = "staging/videos"
	c.Storage.ImageDir = "staging/images"
	c.Storage.SegmentDir = "staging/segments"
	c.Storage.PresignTTLSec = 900
	c.Pipeline = Pipeline{
		DetectInterval:      5,
		NumSegments:         3,
		ConfidenceThreshold: 0.7,
		WindowSeconds:       5,
		MusicSegmentSeconds: 20,
		VADAggressiveness:   3,
		Ducking: Ducking{
			GapThresholdSeconds: 2.0,
			GapCarryover:        true,
			SilenceGainDB:       -10,
			TailGainDB:          -5,
			VoiceFloorDB:        15,
			VoiceOffsetDB:       35,
			MakeupGainDB:        5,
			FadeMillis:          300,
		},
	}
	return c
}
