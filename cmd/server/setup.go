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


// Package main contains the setup and initialization logic for the
// application's state. StateManager holds the shared dependencies: the
// configuration, the Google Cloud clients, the stores, the run index and the
// fusion service built on top of them.
//
// Functions:
//   - SetupOS: Defaults the environment variables the configuration loader reads.
//   - GetConfig: Loads the configuration from TOML files once.
//   - InitState: Creates the clients, stores, index and fusion service, and
//     starts the Pub/Sub listeners.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-media-fusion/internal/cloud"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/workflow"
)

// StateManager holds all the shared dependencies of the application.
type StateManager struct {
	config        *cloud.Config
	cloud         *cloud.ServiceClients
	index         services.FusionIndex
	fusionService *services.FusionService
}

var state = &StateManager{}

// Close releases the index and the cloud clients.
func (s *StateManager) Close() {
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			slog.Warn("failed to close fusion index", "error", err)
		}
	}
	if s.cloud != nil {
		s.cloud.Close()
	}
}

// SetupOS points the configuration loader at the "configs" directory and the
// "local" runtime, unless the environment already says otherwise.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads the configuration on first use and caches it.
func GetConfig() (*cloud.Config, error) {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			return nil, fmt.Errorf("failed to setup environment: %w", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			return nil, err
		}
		state.config = config
	}
	return state.config, nil
}

// InitState wires the application and starts the background listeners.
func InitState(ctx context.Context, config *cloud.Config) error {
	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	artifacts, fused, err := NewStores(config, cloudClients)
	if err != nil {
		return err
	}
	index, err := NewIndex(config, cloudClients)
	if err != nil {
		return err
	}
	state.index = index

	var narrator services.NarrativeGenerator
	if name := config.NarrativeModel; name != "" {
		model, ok := cloudClients.AgentModels[name]
		if !ok {
			return fmt.Errorf("narrative_model %q is not configured in agent_models", name)
		}
		if narrator, err = cloud.NewGenAINarrator(model); err != nil {
			return err
		}
	}

	state.fusionService = workflow.NewFusionService(config, artifacts, fused, index, narrator)
	SetupListeners(ctx, config, cloudClients, state.fusionService)
	return nil
}

// NewStores creates the artifact and fused stores of the configured back end.
func NewStores(config *cloud.Config, clients *cloud.ServiceClients) (services.ArtifactStore, services.FusedStore, error) {
	templates := config.ArtifactTemplates()
	switch config.Storage.Backend {
	case cloud.BackendFile:
		root := config.Storage.LocalRoot
		return services.NewFileArtifactStore(root, templates),
			services.NewFileFusedStore(filepath.Join(root, config.Storage.FusedPrefix)), nil
	case cloud.BackendGCS:
		if config.Storage.ArtifactBucket == "" || config.Storage.FusedBucket == "" {
			return nil, nil, errors.New("gcs storage requires artifact_bucket and fused_bucket")
		}
		return services.NewGCSArtifactStore(clients.StorageClient, config.Storage.ArtifactBucket, templates),
			services.NewGCSFusedStore(clients.StorageClient, config.Storage.FusedBucket, config.Storage.FusedPrefix), nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
}

// NewIndex creates the configured fusion run index.
func NewIndex(config *cloud.Config, clients *cloud.ServiceClients) (services.FusionIndex, error) {
	switch config.Index.Backend {
	case cloud.BackendNone, "":
		return services.NopIndex{}, nil
	case cloud.BackendSQLite:
		return services.NewSQLiteIndex(config.Index.SQLitePath, slog.Default())
	case cloud.BackendBigQuery:
		return services.NewBigQueryIndex(clients.BiqQueryClient,
			config.BigQueryDataSource.DatasetName, config.BigQueryDataSource.FusionTable), nil
	}
	return nil, fmt.Errorf("unknown index backend %q", config.Index.Backend)
}
