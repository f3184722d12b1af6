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
	"encoding/json"
	"fmt"

	"github.com/storycut/edit-service/internal/core/cor"
	"github.com/storycut/edit-service/internal/core/model"
)

// RequestParserCommand normalizes the pipeline trigger into a
// *model.PipelineRequest. The HTTP surface hands the chain an already-built
// request; the Pub/Sub trigger hands it the raw JSON message payload. Every
// later stage only ever sees the struct.
type RequestParserCommand struct {
	cor.BaseCommand
}

// NewRequestParserCommand creates the trigger normalization stage.
func NewRequestParserCommand(name string) *RequestParserCommand {
	return &RequestParserCommand{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute converts the input value into a request and validates the one
// field no run can proceed without.
func (c *RequestParserCommand) Execute(context cor.Context) {
	ctx := context.GetContext()

	request, err := c.coerce(context.Get(c.GetInputParam()))
	if err == nil && request.VideoID <= 0 {
		err = fmt.Errorf("invalid trigger: missing videoId")
	}
	if err != nil {
		c.GetErrorCounter().Add(ctx, 1)
		context.AddError(c.GetName(), err)
		return
	}
	context.Add(c.GetOutputParam(), request)
	c.GetSuccessCounter().Add(ctx, 1)
}

func (c *RequestParserCommand) coerce(in interface{}) (*model.PipelineRequest, error) {
	switch v := in.(type) {
	case *model.PipelineRequest:
		return v, nil
	case string:
		return unmarshalRequest([]byte(v))
	case []byte:
		return unmarshalRequest(v)
	default:
		return nil, fmt.Errorf("invalid trigger payload type %T", in)
	}
}

func unmarshalRequest(data []byte) (*model.PipelineRequest, error) {
	var request model.PipelineRequest
	if err := json.Unmarshal(data, &request); err != nil {
		return nil, fmt.Errorf("invalid trigger payload: %w", err)
	}
	return &request, nil
}
