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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `[(0, 5)]`, StripCodeFences("```json\n[(0, 5)]\n```"))
	assert.Equal(t, `[(0, 5)]`, StripCodeFences("```\n[(0, 5)]\n```"))
	assert.Equal(t, `[(0, 5)]`, StripCodeFences("  [(0, 5)]  "))
	assert.Equal(t, "plain text", StripCodeFences("plain text"))
}

func TestLoadConfigOverlay(t *testing.T) {
	dir := t.TempDir()
	base := `
[application]
name = "edit-service"
google_project_id = "base-project"

[storage]
bucket = "base-bucket"

[pipeline]
confidence_threshold = 0.7
`
	override := `
[application]
google_project_id = "test-project"

[pipeline]
num_segments = 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte(base), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.unittest.toml"), []byte(override), 0o640))
	t.Setenv(EnvConfigFilePrefix, dir)
	t.Setenv(EnvConfigRuntime, "unittest")

	config := NewConfig()
	LoadConfig(&config)

	// Overridden by the runtime file.
	assert.Equal(t, "test-project", config.Application.GoogleProjectId)
	assert.Equal(t, 2, config.Pipeline.NumSegments)
	// Inherited from the base file.
	assert.Equal(t, "edit-service", config.Application.Name)
	assert.Equal(t, "base-bucket", config.Storage.Bucket)
	// Untouched defaults survive both layers.
	assert.Equal(t, 0.7, config.Pipeline.ConfidenceThreshold)
	assert.Equal(t, 5, config.Pipeline.DetectInterval)
	assert.Equal(t, 300, config.Pipeline.Ducking.FadeMillis)
}

func TestNewConfigDefaults(t *testing.T) {
	config := NewConfig()
	assert.Equal(t, StorageBackendGCS, config.Storage.Backend)
	assert.Equal(t, 3, config.Pipeline.NumSegments)
	assert.Equal(t, 3, config.Pipeline.VADAggressiveness)
	assert.True(t, config.Pipeline.Ducking.GapCarryover)
	assert.NotNil(t, config.AgentModels)
	assert.NotNil(t, config.TopicSubscriptions)
}
