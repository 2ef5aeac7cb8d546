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


// Package main contains the logic for setting up and starting the Pub/Sub
// message listeners. The orchestrator publishes a message whenever one of the
// analysis pipelines finishes; each message re-fuses the video from whatever
// artifacts are available at that point.
package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-fusion/internal/cloud"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/commands"
)

// SetupListeners attaches the fusion trigger to the pipeline completion
// listener and starts it. Without a configured subscription fusions are only
// triggered over HTTP.
func SetupListeners(ctx context.Context, config *cloud.Config, cloudClients *cloud.ServiceClients, fuser commands.StoreFuser) {
	listener, ok := cloudClients.PubSubListeners[cloud.PipelineCompleteSubscription]
	if !ok {
		slog.Info("no pipeline completion subscription configured")
		return
	}
	listener.SetCommand(commands.NewFusionTrigger("fusion-trigger", fuser))
	listener.Listen(ctx)
	slog.Info("listening for pipeline completions",
		"subscription", config.TopicSubscriptions[cloud.PipelineCompleteSubscription].Name)
}
