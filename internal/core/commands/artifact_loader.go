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


// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface for the fusion workflow.
// This file defines the command that loads the raw pipeline artifacts.
//
// Logic Flow:
//  1. The command reads the VideoIdentity placed on the context by the service.
//  2. It asks the ArtifactStore which sources have written an artifact.
//  3. Each listed artifact is read and parsed. A source that vanished between
//     listing and reading is treated as not yet available. A malformed
//     artifact is logged and also treated as not available, so one broken
//     pipeline never blocks the others.
//  4. Any other I/O failure is recorded as an error: fusing from a partial
//     read of the store would persist a document that under-reports the
//     pipelines that have completed.
//  5. The resulting ArtifactSet is added to the context.
package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
)

// ArtifactLoader reads every available pipeline artifact for a video.
type ArtifactLoader struct {
	cor.BaseCommand
	store services.ArtifactStore
}

// NewArtifactLoader is the constructor for the ArtifactLoader command.
func NewArtifactLoader(name string, store services.ArtifactStore) *ArtifactLoader {
	return &ArtifactLoader{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

// IsExecutable requires an identity and skips the load when the caller
// already supplied the artifacts.
func (c *ArtifactLoader) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(services.ParamIdentity) != nil &&
		context.Get(services.ParamArtifacts) == nil
}

func (c *ArtifactLoader) Execute(context cor.Context) {
	ctx := context.GetContext()
	id := context.Get(services.ParamIdentity).(model.VideoIdentity)

	sources, err := c.store.ListArtifacts(ctx, id)
	if err != nil {
		c.Failed(context, fmt.Errorf("failed to list artifacts for %s: %w", id, err))
		return
	}

	set := model.ArtifactSet{}
	var readErrs []error
	for _, source := range sources {
		data, err := c.store.ReadArtifact(ctx, id, source)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			readErrs = append(readErrs, err)
			continue
		}
		artifact, err := model.ParseArtifact(source, data)
		if err != nil {
			slog.WarnContext(ctx, "ignoring malformed artifact", "video", id.Key(), "source", source, "error", err)
			continue
		}
		set.Put(artifact)
	}
	if len(readErrs) > 0 {
		c.Failed(context, fmt.Errorf("failed to read artifacts for %s: %w", id, errors.Join(readErrs...)))
		return
	}

	slog.DebugContext(ctx, "loaded artifacts", "video", id.Key(), "count", len(set))
	context.Add(services.ParamArtifacts, set)
	c.Succeeded(context)
}
