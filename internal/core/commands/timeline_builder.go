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
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/timeline"
)

// TimelineBuilder runs a single category builder. Each instance writes only
// its own per-category key, so instances may share a ParallelChain.
type TimelineBuilder struct {
	cor.BaseCommand
	builder timeline.Builder
}

func NewTimelineBuilder(builder timeline.Builder) *TimelineBuilder {
	return &TimelineBuilder{
		BaseCommand: *cor.NewBaseCommand("timeline-" + string(builder.Category)),
		builder:     builder,
	}
}

func (c *TimelineBuilder) IsExecutable(context cor.Context) bool {
	return artifactsReady(context) && context.Get(services.ParamNormalizer) != nil
}

func (c *TimelineBuilder) Execute(context cor.Context) {
	in := timeline.Input{
		Artifacts:  context.Get(services.ParamArtifacts).(model.ArtifactSet),
		Normalizer: context.Get(services.ParamNormalizer).(timeline.Normalizer),
	}
	var out model.Timelines
	c.builder.Build(in, &out)
	context.Add(services.TimelineParam(c.builder.Category), out)
	c.Succeeded(context)
}

// TimelineCollector merges the per-category outputs into one Timelines
// value. A category whose builder did not run stays empty.
type TimelineCollector struct {
	cor.BaseCommand
}

func NewTimelineCollector(name string) *TimelineCollector {
	return &TimelineCollector{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *TimelineCollector) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

func (c *TimelineCollector) Execute(context cor.Context) {
	merged := model.NewTimelines()
	for _, category := range model.AllCategories {
		key := services.TimelineParam(category)
		if partial, ok := context.Get(key).(model.Timelines); ok {
			merged.CopyCategory(category, partial)
		}
		context.Remove(key)
	}
	context.Add(services.ParamTimelines, merged)
	c.Succeeded(context)
}
