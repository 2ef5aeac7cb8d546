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

package commands_test

import (
	"context"
	"testing"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(artifacts ...*model.Artifact) model.ArtifactSet {
	s := model.ArtifactSet{}
	for _, a := range artifacts {
		s.Put(a)
	}
	return s
}

func TestResolveFrameCountPrefersObjectDetection(t *testing.T) {
	artifacts := set(
		model.MustParseArtifact(model.SourceObjectDetection, `{"summary":{"total_frames":12}}`),
		model.MustParseArtifact(model.SourceHumanAnalysis, `{"summary":{"total_frames":30}}`),
	)
	assert.Equal(t, 12, commands.ResolveFrameCount(artifacts))
}

func TestResolveFrameCountSkipsUnusableSummaries(t *testing.T) {
	artifacts := set(
		model.MustParseArtifact(model.SourceObjectDetection, `{"summary":{"total_frames":0}}`),
		model.MustParseArtifact(model.SourceHumanAnalysis, `{"summary":"broken"}`),
		model.MustParseArtifact(model.SourceCreativeAnalysis, `{"summary":{"total_frames":8}}`),
	)
	assert.Equal(t, 8, commands.ResolveFrameCount(artifacts))
	assert.Equal(t, 1, commands.ResolveFrameCount(model.ArtifactSet{}))
}

func TestResolveDuration(t *testing.T) {
	cloud := set(model.MustParseArtifact(model.SourceCloudVideoIntelligence, `{"duration":{"seconds":7,"nanos":500000000}}`))

	assert.Equal(t, 12.0, commands.ResolveDuration(model.StaticMetadata{Duration: 12}, cloud))
	assert.Equal(t, 7.5, commands.ResolveDuration(model.StaticMetadata{}, cloud))
	assert.Equal(t, 0.0, commands.ResolveDuration(model.StaticMetadata{}, model.ArtifactSet{}))
}

func TestFrameCountResolverWritesNormalizer(t *testing.T) {
	chCtx := cor.NewContextWith(context.Background(), "input")
	chCtx.Add(services.ParamArtifacts, set(
		model.MustParseArtifact(model.SourceObjectDetection, `{"summary":{"total_frames":20}}`),
	))
	chCtx.Add(services.ParamStaticMetadata, model.StaticMetadata{Duration: 10})

	cmd := commands.NewFrameCountResolver("resolve")
	require.True(t, cmd.IsExecutable(chCtx))
	cmd.Execute(chCtx)

	n, ok := chCtx.Get(services.ParamNormalizer).(timeline.Normalizer)
	require.True(t, ok)
	assert.Equal(t, 20, n.FrameCount())
	assert.Equal(t, 10.0, n.Duration())
	assert.False(t, n.Degraded())
	assert.False(t, chCtx.HasErrors())
}

func TestTimelineCollectorMergesAndClearsKeys(t *testing.T) {
	chCtx := cor.NewContextWith(context.Background(), "input")
	objects := model.NewTimelines()
	objects.ObjectPresence = model.Timeline[model.ObjectPresence]{
		"0-1s": {Frame: 0, Objects: map[string]int{"person": 1}, TotalObjects: 1},
	}
	chCtx.Add(services.TimelineParam(model.CategoryObjectPresence), objects)

	commands.NewTimelineCollector("collect").Execute(chCtx)

	merged, ok := chCtx.Get(services.ParamTimelines).(model.Timelines)
	require.True(t, ok)
	assert.Len(t, merged.ObjectPresence, 1)
	assert.NotNil(t, merged.Speech)
	assert.Empty(t, merged.Speech)
	assert.Nil(t, chCtx.Get(services.TimelineParam(model.CategoryObjectPresence)))
}

func TestPipelineStatusRecorderNeedsArtifacts(t *testing.T) {
	chCtx := cor.NewContextWith(context.Background(), "input")
	cmd := commands.NewPipelineStatusRecorder("status")
	assert.False(t, cmd.IsExecutable(chCtx))

	chCtx.Add(services.ParamArtifacts, set(model.MustParseArtifact(model.SourceSceneDetection, `{"scenes":[]}`)))
	require.True(t, cmd.IsExecutable(chCtx))
	cmd.Execute(chCtx)

	status := chCtx.Get(services.ParamPipelineStatus).(model.PipelineStatus)
	assert.True(t, status[model.SourceSceneDetection])
	assert.False(t, status[model.SourceObjectDetection])
	assert.Len(t, status, len(model.AllSources))
}
