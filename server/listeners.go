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

// Package main contains the logic for starting the Pub/Sub message
// listeners. Messages on the edit-request subscription carry the same JSON
// payload the HTTP surface accepts, so batch producers and the mobile app
// trigger identical pipeline runs.
package main

import (
	"context"

	"github.com/storycut/edit-service/internal/cloud"
)

// SetupListeners attaches the edit service to the edit-request subscription
// and starts receiving. The listener only acknowledges a message when the
// whole pipeline run succeeds, so a crashed run is redelivered.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	listener, ok := cloudClients.PubSubListeners["EditRequests"]
	if !ok {
		return
	}
	listener.SetCommand(state.editService)
	listener.Listen(ctx)
}
