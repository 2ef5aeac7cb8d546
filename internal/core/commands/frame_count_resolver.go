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
	"log/slog"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/timeline"
)

// frameCountSources is the priority order for the total frame count.
var frameCountSources = []model.Source{
	model.SourceObjectDetection,
	model.SourceHumanAnalysis,
	model.SourceCreativeAnalysis,
}

// ResolveFrameCount returns the first positive summary.total_frames of the
// frame based detectors, or 1 when none reports one.
func ResolveFrameCount(artifacts model.ArtifactSet) int {
	for _, source := range frameCountSources {
		var summary model.DetectorSummary
		if err := artifacts.Get(source).Decode(&summary, "summary"); err != nil {
			continue
		}
		if summary.TotalFrames > 0 {
			return summary.TotalFrames
		}
	}
	return 1
}

// ResolveDuration prefers the platform duration and falls back to the
// duration reported by the video intelligence pipeline.
func ResolveDuration(static model.StaticMetadata, artifacts model.ArtifactSet) float64 {
	if static.Duration > 0 {
		return static.Duration
	}
	var offset model.TimeOffset
	if err := artifacts.Get(model.SourceCloudVideoIntelligence).Decode(&offset, "duration"); err != nil {
		return static.Duration
	}
	return offset.Seconds()
}

// FrameCountResolver builds the time normalizer of the run.
type FrameCountResolver struct {
	cor.BaseCommand
}

func NewFrameCountResolver(name string) *FrameCountResolver {
	return &FrameCountResolver{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *FrameCountResolver) IsExecutable(context cor.Context) bool {
	return artifactsReady(context) && context.Get(services.ParamStaticMetadata) != nil
}

func (c *FrameCountResolver) Execute(context cor.Context) {
	artifacts := context.Get(services.ParamArtifacts).(model.ArtifactSet)
	static := context.Get(services.ParamStaticMetadata).(model.StaticMetadata)

	normalizer := timeline.NewNormalizer(ResolveFrameCount(artifacts), ResolveDuration(static, artifacts))
	if normalizer.Degraded() {
		slog.WarnContext(context.GetContext(), "no usable duration, timelines collapse to a single bucket",
			"frame_count", normalizer.FrameCount(), "duration", normalizer.Duration())
	}
	context.Add(services.ParamNormalizer, normalizer)
	c.Succeeded(context)
}
