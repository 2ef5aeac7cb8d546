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
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/insights"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/metadata"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
)

func timelinesReady(context cor.Context) bool {
	return artifactsReady(context) && context.Get(services.ParamTimelines) != nil
}

// MetadataSummarizer recomputes the metadata summary from the static
// snapshot and the fused speech timeline.
type MetadataSummarizer struct {
	cor.BaseCommand
}

func NewMetadataSummarizer(name string) *MetadataSummarizer {
	return &MetadataSummarizer{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *MetadataSummarizer) IsExecutable(context cor.Context) bool {
	return timelinesReady(context) && context.Get(services.ParamStaticMetadata) != nil
}

func (c *MetadataSummarizer) Execute(context cor.Context) {
	artifacts := context.Get(services.ParamArtifacts).(model.ArtifactSet)
	static := context.Get(services.ParamStaticMetadata).(model.StaticMetadata)
	timelines := context.Get(services.ParamTimelines).(model.Timelines)

	summary := metadata.Summarize(static, timelines.Speech, artifacts.Get(model.SourceCloudVideoIntelligence))
	context.Add(services.ParamSummary, summary)
	c.Succeeded(context)
}

// InsightDeriver reduces the fused timelines into the insight set.
type InsightDeriver struct {
	cor.BaseCommand
	weights insights.Weights
}

func NewInsightDeriver(name string, weights insights.Weights) *InsightDeriver {
	return &InsightDeriver{BaseCommand: *cor.NewBaseCommand(name), weights: weights}
}

func (c *InsightDeriver) IsExecutable(context cor.Context) bool {
	return timelinesReady(context)
}

func (c *InsightDeriver) Execute(context cor.Context) {
	artifacts := context.Get(services.ParamArtifacts).(model.ArtifactSet)
	timelines := context.Get(services.ParamTimelines).(model.Timelines)
	context.Add(services.ParamInsights, insights.Derive(artifacts, timelines, c.weights))
	c.Succeeded(context)
}
