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


// Package workflow defines the high-level business logic orchestrations,
// combining commands into coherent pipelines. This file implements the fusion
// workflow that turns the raw pipeline artifacts of one video into a persisted
// FusedAnalysis.
package workflow

import (
	"github.com/jaycherian/gcp-go-media-fusion/internal/cloud"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/insights"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/timeline"
)

// FusionWorkflow is the chain run by FusionService for every fusion. It
// expects the video identity and the fusion timestamp on the context, and
// optionally the artifact set; without one the artifacts are loaded from the
// artifact store.
type FusionWorkflow struct {
	cor.BaseCommand
	artifacts       services.ArtifactStore
	fused           services.FusedStore
	index           services.FusionIndex
	weights         insights.Weights
	numberOfWorkers int
	chain           cor.Chain
}

// Execute runs the underlying chain.
func (w *FusionWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// IsExecutable requires the identity of the video to fuse.
func (w *FusionWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(services.ParamIdentity) != nil
}

// Chain exposes the underlying chain.
func (w *FusionWorkflow) Chain() cor.Chain {
	return w.chain
}

func (w *FusionWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Load the artifacts, unless the caller supplied them.
	out.AddCommand(commands.NewArtifactLoader("load-artifacts", w.artifacts))

	// Step 2: Record which pipelines delivered an artifact.
	out.AddCommand(commands.NewPipelineStatusRecorder("record-pipeline-status"))

	// Step 3: Extract the platform metadata; its duration feeds the normalizer.
	out.AddCommand(commands.NewStaticMetadataExtractor("extract-static-metadata"))

	// Step 4: Resolve the frame count and duration into the run's normalizer.
	out.AddCommand(commands.NewFrameCountResolver("resolve-frame-count"))

	// Step 5: Build every category timeline. Builders write disjoint keys and
	// run on a bounded pool; a pool of one yields the same output.
	builders := cor.NewParallelChain("build-timelines", w.numberOfWorkers)
	for _, b := range timeline.Builders() {
		builders.AddCommand(commands.NewTimelineBuilder(b))
	}
	out.AddCommand(builders)

	// Step 6: Merge the per-category outputs.
	out.AddCommand(commands.NewTimelineCollector("collect-timelines"))

	// Step 7 and 8: Recompute the aggregates from the fused timelines.
	out.AddCommand(commands.NewMetadataSummarizer("summarize-metadata"))
	out.AddCommand(commands.NewInsightDeriver("derive-insights", w.weights))

	// Step 9: Assemble the analysis in memory.
	out.AddCommand(commands.NewFusedAssembler("assemble-fused-analysis"))

	// Step 10: Persist it in a single atomic replace.
	out.AddCommand(commands.NewFusedPersister("persist-fused-analysis", w.fused))

	// Step 11: Index the run. Failures here never fail the run.
	out.AddCommand(commands.NewFusionIndexer("index-fusion-run", w.index))

	w.chain = out
}

// NewFusionWorkflow is the constructor for the FusionWorkflow. index may be
// nil, in which case runs are not indexed.
func NewFusionWorkflow(
	config *cloud.Config,
	artifacts services.ArtifactStore,
	fused services.FusedStore,
	index services.FusionIndex) *FusionWorkflow {

	if index == nil {
		index = services.NopIndex{}
	}
	workflow := &FusionWorkflow{
		BaseCommand:     *cor.NewBaseCommand("fusion-workflow"),
		artifacts:       artifacts,
		fused:           fused,
		index:           index,
		weights:         config.Scoring,
		numberOfWorkers: config.Application.ThreadPoolSize,
	}
	workflow.initializeChain()
	return workflow
}

// NewFusionService wires a FusionService around a new FusionWorkflow.
func NewFusionService(
	config *cloud.Config,
	artifacts services.ArtifactStore,
	fused services.FusedStore,
	index services.FusionIndex,
	narrator services.NarrativeGenerator) *services.FusionService {

	return services.NewFusionService(artifacts, fused, index, narrator, NewFusionWorkflow(config, artifacts, fused, index))
}
