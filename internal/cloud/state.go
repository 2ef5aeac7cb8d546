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

// Package cloud provides components for interacting with Google Cloud services.
// This file initializes and holds the clients needed to talk to Google Cloud.
// It acts as a dependency injection container: a single ServiceClients value
// is created at start up and handed to the services and listeners.
//
// Clients are created only for the features the configuration enables: a
// purely local set up (file storage, sqlite index, no subscriptions and no
// agent models) creates no cloud client at all.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/genai"
)

// ErrNoProject is returned when a cloud feature is enabled without a project.
var ErrNoProject = errors.New("google_project_id is required")

// ServiceClients is the central container for every external client.
type ServiceClients struct {
	StorageClient   *storage.Client                         // Set when storage.backend is "gcs".
	PubsubClient    *pubsub.Client                          // Set when topic subscriptions are configured.
	GenAIClient     *genai.Client                           // Set when agent models are configured.
	BiqQueryClient  *bigquery.Client                        // Set when index.backend is "bigquery".
	PubSubListeners map[string]*PubSubListener              // Keyed by the logical subscription name.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Keyed by the logical model name.
}

// Close shuts down every client that was created.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BiqQueryClient != nil {
		_ = c.BiqQueryClient.Close()
	}
}

// NewCloudServiceClients creates the clients required by config.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}
	projectID := config.Application.GoogleProjectId
	defer func() {
		if err != nil {
			cloud.Close()
			cloud = nil
		}
	}()

	if config.Storage.Backend == BackendGCS {
		cloud.StorageClient, err = storage.NewClient(ctx)
		if err != nil {
			return cloud, fmt.Errorf("failed to create storage client: %w", err)
		}
	}

	if config.Index.Backend == BackendBigQuery {
		if projectID == "" {
			return cloud, fmt.Errorf("bigquery index: %w", ErrNoProject)
		}
		cloud.BiqQueryClient, err = bigquery.NewClient(ctx, projectID)
		if err != nil {
			return cloud, fmt.Errorf("failed to create bigquery client: %w", err)
		}
	}

	if len(config.TopicSubscriptions) > 0 {
		if projectID == "" {
			return cloud, fmt.Errorf("topic subscriptions: %w", ErrNoProject)
		}
		cloud.PubsubClient, err = pubsub.NewClient(ctx, projectID)
		if err != nil {
			return cloud, fmt.Errorf("failed to create pubsub client: %w", err)
		}
		// Commands are attached once the workflows are built.
		for subKey, values := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(cloud.PubsubClient, values.Name, nil)
			if err != nil {
				return cloud, err
			}
			cloud.PubSubListeners[subKey] = listener
		}
	}

	if len(config.AgentModels) > 0 {
		if projectID == "" {
			return cloud, fmt.Errorf("agent models: %w", ErrNoProject)
		}
		cloud.GenAIClient, err = genai.NewClient(ctx, &genai.ClientConfig{
			Project:  projectID,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		})
		if err != nil {
			return cloud, fmt.Errorf("failed to create genai client: %w", err)
		}
		for amKey, values := range config.AgentModels {
			cloud.AgentModels[amKey] = NewQuotaAwareModel(NewGenerateContentConfig(values), values.Model, cloud.GenAIClient.Models, values.RateLimit)
			slog.Debug("configured agent model", "key", amKey, "model", values.Model)
		}
	}

	return cloud, nil
}

// NewGenerateContentConfig maps an agent model configuration onto a genai
// generation config.
func NewGenerateContentConfig(values VertexAiLLMModel) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](values.Temperature),
		TopP:             genai.Ptr[float32](values.TopP),
		TopK:             genai.Ptr[float32](values.TopK),
		MaxOutputTokens:  values.MaxTokens,
		SafetySettings:   DefaultSafetySettings,
		ResponseMIMEType: values.OutputFormat,
	}
	if values.SystemInstructions != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
	}
	return cfg
}
