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

// Package test provides utility functions and mock data to support the
// application's test suite: a cached test configuration, sample trigger
// payloads, and synthetic signal generators for the audio tests.
package test

import (
	"log"
	"math"
	"os"
	"testing"

	"github.com/storycut/edit-service/internal/cloud"
)

// StateManager caches the test configuration so it is loaded from the TOML
// files only once per test run.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is non-nil. Convenience to reduce
// boilerplate in tests that do many fallible setup steps.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestEditRequestText returns the JSON payload of a full-featured edit
// request the way the Pub/Sub trigger delivers it: every stage enabled.
func GetTestEditRequestText() string {
	return `{
  "videoId": 42,
  "prompt": "keep only the parts where people are dancing",
  "images": ["testdata/staging/images/target-a.jpg"],
  "subtitle": true,
  "musicPrompt": "calm lo-fi with soft piano",
  "autoMusic": false,
  "deviceToken": "test-device-token"
}`
}

// GetTestMinimalRequestText returns the smallest valid trigger payload:
// every optional stage disabled.
func GetTestMinimalRequestText() string {
	return `{"videoId": 7, "subtitle": false}`
}

// SetupOS points the configuration loader at the test TOML files
// (configs/.env.toml overlaid with configs/.env.test.toml).
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// Sine generates a sine wave of the given frequency and amplitude, lasting
// seconds at sampleRate. Audio tests use it as a deterministic stand-in for
// music and speech.
func Sine(freq float64, amplitude float64, seconds float64, sampleRate int) []float64 {
	n := int(seconds * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// Silence generates seconds of digital silence at sampleRate.
func Silence(seconds float64, sampleRate int) []float64 {
	return make([]float64, int(seconds*float64(sampleRate)))
}
