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

// This file is central to the application's architecture: it initializes and
// holds every client the edit service talks to. It acts as a dependency
// injection container, creating a single shared ServiceClients struct that
// is passed to the workflows and the API handlers.
//
// Logic Flow:
//  1. NewCloudServiceClients is called at application startup with the
//     loaded configuration.
//  2. It initializes the Google Cloud clients (Storage, Pub/Sub, GenAI, IAM
//     credentials), the object store selected by the [storage] section, the
//     metadata-service client, the FCM notifier, and the ML sidecar clients.
//  3. Pub/Sub listeners and rate-limited agent models are built from their
//     config maps.
//  4. Everything is bundled into one ServiceClients struct.
package cloud

import (
	"context"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"

	"github.com/storycut/edit-service/internal/inference"
)

// InferenceClients groups the ML sidecar clients behind their capability
// interfaces.
type InferenceClients struct {
	Face       inference.FaceAnalyzer
	Transcribe inference.Transcriber
	Music      inference.MusicGenerator
	Action     inference.ActionClassifier
}

// ServiceClients is the central container for every external connection the
// service holds: Google Cloud clients, the selected object store, the
// metadata-service client, the push notifier, the ML sidecars, and the
// configured generative models.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	GenAIClient     *genai.Client
	IAMClient       *credentials.IamCredentialsClient
	ObjectStore     ObjectStore
	Spring          *SpringClient
	Notifier        *FCMNotifier
	Inference       InferenceClients
	PubSubListeners map[string]*PubSubListener
	AgentModels     map[string]*QuotaAwareGenerativeAIModel
}

// Close releases the client connections that expose an explicit shutdown.
// Useful in tests and controlled shutdowns; the root context otherwise
// manages their lifecycle.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NewCloudServiceClients initializes all external dependencies from the
// configuration. It is the single entry point for wiring the service.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, err
	}

	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, err
	}

	notifier, err := NewFCMNotifier(ctx, &config.FCM)
	if err != nil {
		return nil, err
	}

	// Listeners are created with a nil command; the workflow chains attach
	// themselves once the server assembles them.
	subscriptions := make(map[string]*PubSubListener)
	for subKey, values := range config.TopicSubscriptions {
		listener, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = listener
	}

	// Configure each agent model and wrap it in the rate limiter.
	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		generationConfig := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](values.Temperature),
			TopP:              genai.Ptr[float32](values.TopP),
			TopK:              genai.Ptr[float32](values.TopK),
			MaxOutputTokens:   values.MaxTokens,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
			SafetySettings:    DefaultSafetySettings,
			ResponseMIMEType:  values.OutputFormat,
		}
		agentModels[amKey] = NewQuotaAwareModel(generationConfig, values.Model, gc.Models, values.RateLimit)
	}

	clients := &ServiceClients{
		StorageClient: sc,
		PubsubClient:  pc,
		GenAIClient:   gc,
		IAMClient:     iamClient,
		Spring:        NewSpringClient(&config.Spring),
		Notifier:      notifier,
		Inference: InferenceClients{
			Face:       inference.NewFaceAnalyzer(config.Inference.Face.URL, config.Inference.Face.TimeoutInSeconds),
			Transcribe: inference.NewTranscriber(config.Inference.Transcribe.URL, config.Inference.Transcribe.TimeoutInSeconds),
			Music:      inference.NewMusicGenerator(config.Inference.Music.URL, config.Inference.Music.TimeoutInSeconds),
			Action:     inference.NewActionClassifier(config.Inference.Action.URL, config.Inference.Action.TimeoutInSeconds),
		},
		PubSubListeners: subscriptions,
		AgentModels:     agentModels,
	}

	store, err := NewObjectStore(ctx, clients, &config.Storage)
	if err != nil {
		return nil, err
	}
	clients.ObjectStore = store

	return clients, nil
}
