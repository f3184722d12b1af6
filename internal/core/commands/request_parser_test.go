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

package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/model"
	test "github.com/storycut/edit-service/internal/testutil"
)

func newTestContext() cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	return chainCtx
}

func TestRequestParserAcceptsJSONPayload(t *testing.T) {
	cmd := NewRequestParserCommand("parse-trigger")
	chainCtx := newTestContext()
	chainCtx.Add(cor.CtxIn, test.GetTestEditRequestText())

	cmd.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	request, ok := chainCtx.Get(cor.CtxOut).(*model.PipelineRequest)
	require.True(t, ok)
	assert.Equal(t, int64(42), request.VideoID)
	assert.True(t, request.Subtitle)
	assert.True(t, request.WantsCut())
	assert.True(t, request.WantsMusic())
	assert.True(t, request.WantsMosaic())
	assert.Equal(t, "test-device-token", request.DeviceToken)
}

func TestRequestParserPassesStructThrough(t *testing.T) {
	cmd := NewRequestParserCommand("parse-trigger")
	chainCtx := newTestContext()
	original := &model.PipelineRequest{VideoID: 7}
	chainCtx.Add(cor.CtxIn, original)

	cmd.Execute(chainCtx)

	require.False(t, chainCtx.HasErrors())
	assert.Same(t, original, chainCtx.Get(cor.CtxOut))
}

func TestRequestParserRejectsGarbage(t *testing.T) {
	for _, payload := range []interface{}{
		"not json at all",
		12345,
		`{"subtitle": true}`, // valid JSON but no videoId
	} {
		cmd := NewRequestParserCommand("parse-trigger")
		chainCtx := newTestContext()
		chainCtx.Add(cor.CtxIn, payload)

		cmd.Execute(chainCtx)

		assert.True(t, chainCtx.HasErrors(), "payload %v must be rejected", payload)
	}
}
