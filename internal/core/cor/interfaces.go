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

// Package cor (Chain of Responsibility) provides the building blocks for the
// video edit pipeline. A pipeline run is a chain of commands executed in a
// fixed order over a shared context; each command reads its input from the
// context, performs one edit stage, and writes its output back for the next
// command.
//
// On top of the classic command/chain/context trio, this package adds the
// notion of a "current asset": the single on-disk video file a pipeline run
// owns at any given moment. Stages hand the asset forward with
// Context.PromoteAsset, which confirms the new file exists before deleting
// the previous one, so a run never holds more than two full-size copies of
// the video at once.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used by BaseChain to pipe the primary output
// of one command into the primary input of the next.
const (
	// CtxIn is the default key for a command's primary input. BaseChain
	// populates it with the previous command's output.
	CtxIn = "__IN__"
	// CtxOut is the default key where a command places its primary output.
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain of commands for
// a single pipeline run. It carries arbitrary key/value data, collected
// errors, temp-file bookkeeping, and the current video asset.
type Context interface {
	// SetContext sets the standard Go context, used for cancellation and
	// for carrying OpenTelemetry span information.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair. Returns the Context for fluent chaining.
	Add(key string, value interface{}) Context

	// AddError records an error keyed by the name of the command that
	// produced it.
	AddError(key string, err error)

	// GetErrors returns every error collected during the run.
	GetErrors() map[string]error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// HasErrors reports whether any command has recorded an error.
	HasErrors() bool

	// CurrentAsset returns the path of the video file this run currently
	// owns, or "" before the first stage has produced one.
	CurrentAsset() string

	// SetAsset sets the current asset path without deleting anything. Used
	// by the first stage that materializes the source video locally.
	SetAsset(path string)

	// PromoteAsset makes newPath the current asset. It fails if newPath
	// does not exist on disk; on success the previous asset file is
	// deleted (best effort, removal failures are logged, not returned).
	PromoteAsset(newPath string) error

	// AddTempFile registers a transient artifact for removal in Close.
	AddTempFile(file string)

	// GetTempFiles returns every tracked temp-file path.
	GetTempFiles() []string

	// Close removes all tracked temp files. Deferred at the start of a
	// pipeline run; removal failures are logged, never escalated.
	Close()
}

// Executable is anything with core execution logic.
type Executable interface {
	// Execute runs the business logic, reading inputs from and writing
	// outputs to the supplied Context.
	Execute(context Context)
}

// Command is an atomic unit of pipeline work.
type Command interface {
	Executable

	// GetName returns the command name used for logging and telemetry.
	GetName() string

	// GetInputParam returns the context key for the command's primary input.
	GetInputParam() string

	// GetOutputParam returns the context key for the command's primary output.
	GetOutputParam() string

	// IsExecutable is a precondition check run before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for creating metrics.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands. A Chain is itself a Command, so chains
// nest (Composite pattern).
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after
	// a command records an error. The pipeline default is to stop.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
