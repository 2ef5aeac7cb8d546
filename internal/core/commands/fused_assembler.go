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
	"fmt"
	"time"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/timeline"
)

// FusedAssembler builds the FusedAnalysis from the outputs of the earlier
// steps. Nothing is persisted until assembly has completed.
type FusedAssembler struct {
	cor.BaseCommand
}

func NewFusedAssembler(name string) *FusedAssembler {
	return &FusedAssembler{BaseCommand: *cor.NewBaseCommand(name)}
}

var assemblyInputs = []string{
	services.ParamIdentity,
	services.ParamFusedAt,
	services.ParamPipelineStatus,
	services.ParamStaticMetadata,
	services.ParamNormalizer,
	services.ParamTimelines,
	services.ParamSummary,
	services.ParamInsights,
}

func (c *FusedAssembler) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	for _, key := range assemblyInputs {
		if context.Get(key) == nil {
			return false
		}
	}
	return true
}

func (c *FusedAssembler) Execute(context cor.Context) {
	id := context.Get(services.ParamIdentity).(model.VideoIdentity)
	fusedAt := context.Get(services.ParamFusedAt).(time.Time).UTC()
	normalizer := context.Get(services.ParamNormalizer).(timeline.Normalizer)

	fused := &model.FusedAnalysis{
		Identity:        id,
		RunID:           model.NewRunID(id, fusedAt),
		FusedAt:         fusedAt,
		FrameCount:      normalizer.FrameCount(),
		Duration:        normalizer.Duration(),
		StaticMetadata:  context.Get(services.ParamStaticMetadata).(model.StaticMetadata),
		MetadataSummary: context.Get(services.ParamSummary).(model.MetadataSummary),
		Timelines:       context.Get(services.ParamTimelines).(model.Timelines),
		Insights:        context.Get(services.ParamInsights).(model.InsightSet),
		PipelineStatus:  context.Get(services.ParamPipelineStatus).(model.PipelineStatus),
	}
	context.Add(services.ParamFused, fused)
	context.Add(c.GetOutputParam(), fused)
	c.Succeeded(context)
}

// FusedPersister writes the analysis through the FusedStore in one atomic
// replace. A failure is fatal to the run.
type FusedPersister struct {
	cor.BaseCommand
	store services.FusedStore
}

func NewFusedPersister(name string, store services.FusedStore) *FusedPersister {
	return &FusedPersister{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

func (c *FusedPersister) IsExecutable(context cor.Context) bool {
	return context != nil && context.Get(services.ParamFused) != nil
}

func (c *FusedPersister) Execute(context cor.Context) {
	fused := context.Get(services.ParamFused).(*model.FusedAnalysis)
	if err := c.store.Write(context.GetContext(), fused); err != nil {
		c.Failed(context, fmt.Errorf("%w: %w", model.ErrPersistence, err))
		return
	}
	c.Succeeded(context)
}
