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

// Package main contains the setup and initialization logic for the edit
// service's shared state: configuration, cloud service clients, the
// assembled edit workflow, and the service that runs it. The state manager
// keeps these in one place instead of scattering globals.
package main

import (
	"context"
	"log"
	"os"

	"github.com/storycut/edit-service/internal/cloud"
	"github.com/storycut/edit-service/internal/core/services"
	"github.com/storycut/edit-service/internal/core/workflow"
)

// StateManager holds all shared dependencies of the server process.
type StateManager struct {
	config      *cloud.Config
	cloud       *cloud.ServiceClients
	editService *services.VideoEditService
}

// state is the single instance of StateManager for this process.
var state = &StateManager{}

// SetupOS points the configuration loader at the TOML files for this
// deployment. The runtime selects which override file applies on top of
// the base configuration.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application configuration,
// loading it from the TOML files on first use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the application state: every cloud client, the
// local staging directories, the edit workflow chain, and the Pub/Sub
// listeners that trigger it.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	// Staging directories must exist before the first stage tries to write
	// into them.
	for _, dir := range []string{config.Storage.VideoDir, config.Storage.ImageDir, config.Storage.SegmentDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			panic(err)
		}
	}

	editWorkflow := workflow.NewVideoEditPipeline(config, cloudClients, "creative-pro")
	state.editService = services.NewVideoEditService("video-edit-service", editWorkflow, cloudClients.Notifier)

	SetupListeners(config, cloudClients, ctx)
}
