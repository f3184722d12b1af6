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

// Package cor provides the building blocks for the video edit pipeline.
// BaseCommand is the foundation every concrete pipeline command embeds: it
// carries the command name, the input/output context keys used by the
// chain's piping mechanism, and per-command OpenTelemetry instrumentation.
package cor

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// MeterNamespace is the shared OpenTelemetry meter namespace for all
// pipeline commands.
const MeterNamespace = "github.com/storycut/edit-service"

// BaseCommand is the default Command implementation.
type BaseCommand struct {
	Name            string              // Unique command name, used for tracing and metrics.
	InputParamName  string              // Context key for the primary input; defaults to CtxIn.
	OutputParamName string              // Context key for the primary output; defaults to CtxOut.
	Tracer          trace.Tracer        // OpenTelemetry tracer for creating spans.
	Meter           metric.Meter        // OpenTelemetry meter for creating metrics.
	SuccessCounter  metric.Int64Counter // Incremented on successful execution.
	ErrorCounter    metric.Int64Counter // Incremented when an error occurs.
}

// NewBaseCommand creates a command shell with its name and OpenTelemetry
// instrumentation wired up.
func NewBaseCommand(name string) *BaseCommand {
	meter := otel.Meter(MeterNamespace)

	successCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.success", name))
	if err != nil {
		slog.Warn("error creating success counter", "command", name, "error", err)
	}
	errorCounter, err := meter.Int64Counter(fmt.Sprintf("%s.counter.error", name))
	if err != nil {
		slog.Warn("error creating error counter", "command", name, "error", err)
	}

	return &BaseCommand{
		Name:           name,
		Tracer:         otel.Tracer(name),
		Meter:          meter,
		SuccessCounter: successCounter,
		ErrorCounter:   errorCounter,
	}
}

// GetName returns the name of the command.
func (c *BaseCommand) GetName() string {
	return c.Name
}

// IsExecutable is the default precondition: a valid Go context and a present
// primary input. Commands that read the current asset instead of CtxIn
// override this.
func (c *BaseCommand) IsExecutable(context Context) bool {
	return context != nil && context.Get(c.GetInputParam()) != nil && context.GetContext() != nil
}

// GetInputParam returns the primary input key, defaulting to CtxIn so the
// chain can pipe the previous command's output in.
func (c *BaseCommand) GetInputParam() string {
	if len(c.InputParamName) == 0 {
		return CtxIn
	}
	return c.InputParamName
}

// GetOutputParam returns the primary output key, defaulting to CtxOut.
func (c *BaseCommand) GetOutputParam() string {
	if len(c.OutputParamName) == 0 {
		return CtxOut
	}
	return c.OutputParamName
}

// GetTracer returns the OpenTelemetry Tracer for this command.
func (c *BaseCommand) GetTracer() trace.Tracer {
	return c.Tracer
}

// GetMeter returns the OpenTelemetry Meter for this command.
func (c *BaseCommand) GetMeter() metric.Meter {
	return c.Meter
}

// GetSuccessCounter returns the success metric counter.
func (c *BaseCommand) GetSuccessCounter() metric.Int64Counter {
	return c.SuccessCounter
}

// GetErrorCounter returns the error metric counter.
func (c *BaseCommand) GetErrorCounter() metric.Int64Counter {
	return c.ErrorCounter
}
