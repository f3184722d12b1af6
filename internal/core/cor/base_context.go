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

// Package cor provides the building blocks for the video edit pipeline. This
// file defines BaseContext, the default implementation of the Context
// interface: a property bag for one pipeline run, plus the bookkeeping for
// the run's current video asset and its transient artifacts.
package cor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// BaseContext is the default Context implementation.
type BaseContext struct {
	data      map[string]interface{} // Arbitrary key-value data shared between commands.
	errors    map[string]error       // Errors keyed by the command name that produced them.
	tempFiles []string               // Transient artifacts removed in Close.
	asset     string                 // Path of the video file this run currently owns.
	context   context.Context        // Standard Go context for cancellation and tracing.
}

// NewBaseContext creates an empty, ready-to-use context.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
	}
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// CurrentAsset returns the path of the run's current video file.
func (c *BaseContext) CurrentAsset() string {
	return c.asset
}

// SetAsset records the initial asset path. It does not delete anything; use
// PromoteAsset for stage-to-stage handoff.
func (c *BaseContext) SetAsset(path string) {
	c.asset = path
}

// PromoteAsset transfers ownership of the run's video file to newPath. The
// new file must already exist on disk; only then is the previous asset
// removed. This keeps peak temporary storage bounded to two copies of the
// video and guarantees a crash leaves at most one stale full-size file.
func (c *BaseContext) PromoteAsset(newPath string) error {
	if _, err := os.Stat(newPath); err != nil {
		return fmt.Errorf("stage output missing, keeping %q: %w", c.asset, err)
	}
	prior := c.asset
	c.asset = newPath
	if prior != "" && prior != newPath {
		if err := os.Remove(prior); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove consumed asset", "path", prior, "error", err)
		}
	}
	return nil
}

// Close removes every tracked temp file. Failures are logged only: cleanup
// must never mask the pipeline's real outcome.
func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temporary file", "path", file, "error", err)
		}
	}
}

// Add stores a key-value pair and returns the context for fluent chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile registers a transient artifact for removal in Close.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddError records an error under the producing command's name.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
