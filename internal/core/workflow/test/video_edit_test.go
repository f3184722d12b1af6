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

package workflow_test

import (
	"fmt"
	"testing"

	"github.com/storycut/edit-service/internal/core/commands"
	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/workflow"
	test "github.com/storycut/edit-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/codes"
)

// TestVideoEditChain runs the full edit pipeline end to end: it simulates a
// Pub/Sub edit request, then cuts, subtitles, mixes, mosaics, publishes, and
// registers the result. It needs a live metadata service, object storage,
// and the ML sidecars, so it only runs with EDIT_INTEGRATION=1.
func TestVideoEditChain(t *testing.T) {
	if !integrationEnabled() {
		t.Skip("set EDIT_INTEGRATION=1 to run against live backends")
	}

	traceCtx, span := tracer.Start(ctx, "video-edit-test")
	defer span.End()

	videoEdit := workflow.NewVideoEditPipeline(config, cloudClients, "creative-pro")

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(traceCtx)
	chainCtx.Add(cor.CtxIn, test.GetTestEditRequestText())

	videoEdit.Execute(chainCtx)

	for k, err := range chainCtx.GetErrors() {
		fmt.Printf("Error: (%s): %v\n", k, err)
	}
	if chainCtx.HasErrors() {
		span.SetStatus(codes.Error, "failed to execute video edit test")
	}
	assert.False(t, chainCtx.HasErrors())
	span.SetStatus(codes.Ok, "passed - video edit test")

	assert.NotNil(t, chainCtx.Get(commands.CtxResultRecord))
}
