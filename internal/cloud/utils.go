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

// This file contains general-purpose utility functions that support the cloud
// package: hierarchical configuration loading, file system checks, and
// resilient interaction with the text-generation API.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - LoadConfig: Implements a hierarchical configuration loader. It first
//     reads a base configuration file and then overwrites values with a second,
//     environment-specific file (e.g., .env.local.toml, .env.test.toml). The
//     environment is determined by an environment variable.
//   - GenerateTextResponse: A wrapper for making calls to the GenAI model. It
//     includes a retry mechanism to handle transient errors and integrates
//     with OpenTelemetry to record metrics for token usage and retries.
package cloud

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/BurntSushi/toml"
	"google.golang.org/genai"
)

// Cloud Constants define key strings and values used throughout the package,
// primarily for configuration loading and API interaction policies.
const (
	ConfigFileBaseName  = ".env"              // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"             // The file extension for configuration files.
	ConfigSeparator     = "."                 // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "GCP_RUNTIME"       // The environment variable for specifying the runtime context (e.g., "local", "test", "prod").
	MaxRetries          = 3                   // The maximum number of times to retry a failed API call.
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig provides a hierarchical configuration loading mechanism. It first
// loads a base configuration file and then merges or overwrites its values
// with an environment-specific configuration file. The paths and environment
// are determined by environment variables.
func LoadConfig(baseConfig interface{}) {
	// Read the directory path for config files from an environment variable.
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	// Ensure the prefix ends with a path separator if it's not empty.
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	// Read the runtime environment (e.g., "local", "test") from an environment
	// variable. Default to "test" if the variable is not set.
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	// Construct the path for the base configuration file (e.g., "configs/.env.toml").
	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension

	// Construct the path for the environment-specific override file
	// (e.g., "configs/.env.test.toml").
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	// If the base configuration file exists, decode it into the baseConfig struct.
	if fileExists(baseConfigFileName) {
		_, err := toml.DecodeFile(baseConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	// If the environment-specific configuration file exists, decode it. Any
	// values in this file will overwrite the values from the base config.
	if fileExists(envConfigFileName) {
		_, err := toml.DecodeFile(envConfigFileName, baseConfig)
		if err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}

// GenerateTextResponse executes a text-generation request with retries and
// telemetry. The concatenated candidate text is returned with any Markdown
// code fences stripped, since the models frequently wrap structured output
// in ```json blocks even when told not to.
//
// Inputs:
//   - ctx: The context for the request, which controls cancellation and tracing.
//   - inputTokenCounter: An OpenTelemetry counter for prompt tokens used.
//   - outputTokenCounter: An OpenTelemetry counter for response tokens generated.
//   - retryCounter: An OpenTelemetry counter for tracking the number of retries.
//   - tryCount: The current attempt number for this request (starts at 0).
//   - model: The rate-limited, quota-aware generative model to use.
//   - content: The prompt content.
//
// Outputs:
//   - string: The concatenated text content from the model's response.
//   - error: An error if the request fails after all retries.
func GenerateTextResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	retryCounter metric.Int64Counter,
	tryCount int,
	model *QuotaAwareGenerativeAIModel,
	content []*genai.Content) (value string, err error) {
	// Make the request to the generative model.
	resp, err := model.GenerateContent(ctx, content)

	// If there's an error, check if we can retry.
	if err != nil {
		if tryCount < MaxRetries {
			retryCounter.Add(ctx, 1)
			return GenerateTextResponse(ctx, inputTokenCounter, outputTokenCounter, retryCounter, tryCount+1, model, content)
		}
		return "", err
	}
	// Record the token counts for both the prompt and the generated candidates.
	if resp.UsageMetadata != nil {
		inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	// The response can have multiple candidates; concatenate their text parts.
	value = ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				value += part.Text
			}
		}
	}
	return StripCodeFences(value), nil
}

// StripCodeFences removes a wrapping Markdown code fence (with an optional
// language tag) from model output. Text without a fence is returned
// unchanged apart from whitespace trimming.
func StripCodeFences(in string) string {
	out := strings.TrimSpace(in)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	out = strings.TrimPrefix(out, "```")
	// Drop a language tag such as "json" or "python" on the fence line.
	if idx := strings.IndexByte(out, '\n'); idx >= 0 {
		first := strings.TrimSpace(out[:idx])
		if first != "" && !strings.ContainsAny(first, " \t") {
			out = out[idx+1:]
		}
	}
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}

// NewTextPart is a simple factory function for creating prompt content from a
// plain string.
func NewTextPart(in string) []*genai.Content {
	return genai.Text(in)
}
