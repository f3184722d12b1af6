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

// Package workflow_test holds the integration tests for the full edit
// pipeline. TestMain loads the test configuration and telemetry once for the
// whole suite. Cloud service clients are only initialized when
// EDIT_INTEGRATION=1 is set, because they require live project credentials
// and the ML sidecars; without the flag the integration tests skip.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"github.com/storycut/edit-service/internal/cloud"
	"github.com/storycut/edit-service/internal/telemetry"
	test "github.com/storycut/edit-service/internal/testutil"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const tName = "github.com/storycut/edit-service/tests/workflow"

var (
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)

	ctx          context.Context
	config       *cloud.Config
	cloudClients *cloud.ServiceClients
)

// integrationEnabled reports whether the suite should talk to real backends.
func integrationEnabled() bool {
	return os.Getenv("EDIT_INTEGRATION") == "1"
}

func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	config = test.GetConfig()
	telemetry.SetupLogging()

	shutdown := func(context.Context) error { return nil }
	if integrationEnabled() {
		var err error
		shutdown, err = telemetry.SetupOpenTelemetry(ctx, config)
		if err != nil {
			panic(err)
		}
		cloudClients, err = cloud.NewCloudServiceClients(ctx, config)
		if err != nil {
			panic(err)
		}
		defer cloudClients.Close()
	}

	logger.Info("completed test setup")

	exitCode := m.Run()

	if err := shutdown(ctx); err != nil {
		logger.Error("failed to shutdown telemetry", "error", err)
	}
	os.Exit(exitCode)
}
