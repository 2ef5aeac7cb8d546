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


package workflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-media-fusion/internal/cloud"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-media-fusion/internal/testutil"
	"github.com/zeebo/assert"
	"go.opentelemetry.io/otel/codes"
)

var fixedClock = func() time.Time { return time.Date(2024, 10, 11, 3, 4, 8, 672000000, time.UTC) }

// flakyStore fails writes on demand and otherwise delegates to a file store.
type flakyStore struct {
	*services.FileFusedStore
	fail bool
}

func (s *flakyStore) Write(ctx context.Context, analysis *model.FusedAnalysis) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.FileFusedStore.Write(ctx, analysis)
}

// recordingIndex keeps the runs in memory.
type recordingIndex struct {
	mu   sync.Mutex
	runs []services.FusionRun
}

func (r *recordingIndex) Record(_ context.Context, run services.FusionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *recordingIndex) Latest(_ context.Context, identityKey string) (*services.FusionRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.runs) == 0 {
		return nil, model.ErrNotFound
	}
	run := r.runs[len(r.runs)-1]
	return &run, nil
}

func (r *recordingIndex) Close() error { return nil }

func newFileService(t *testing.T, cfg *cloud.Config, index services.FusionIndex) (*services.FusionService, string) {
	t.Helper()
	root := t.TempDir()
	artifacts := services.NewFileArtifactStore(root, cfg.ArtifactTemplates())
	fused := services.NewFileFusedStore(filepath.Join(root, cfg.Storage.FusedPrefix))
	svc := workflow.NewFusionService(cfg, artifacts, fused, index, nil)
	svc.Clock = fixedClock
	return svc, root
}

func encode(t *testing.T, analysis *model.FusedAnalysis) string {
	t.Helper()
	data, err := services.EncodeFused(analysis)
	assert.NoError(t, err)
	return string(data)
}

func TestFuseAllArtifacts(t *testing.T) {
	traceContext, span := tracer.Start(ctx, "fuse-all-artifacts-test")
	defer span.End()

	index := &recordingIndex{}
	svc, _ := newFileService(t, config, index)

	fused, err := svc.Fuse(traceContext, test.TestIdentity, test.GetTestArtifacts(t), nil)
	if err != nil {
		span.SetStatus(codes.Error, "failed - fuse-all-artifacts-test")
	}
	assert.NoError(t, err)

	assert.Equal(t, 10, fused.FrameCount)
	assert.Equal(t, 10.0, fused.Duration)
	assert.Equal(t, len(model.AllSources), fused.PipelineStatus.Available())
	assert.Equal(t, model.NewRunID(test.TestIdentity, fixedClock()), fused.RunID)
	assert.Equal(t, 3, len(fused.Timelines.ObjectPresence))
	assert.That(t, len(fused.Timelines.Speech) > 0)
	assert.That(t, fused.Timelines.SceneChangeCount() > 0)
	assert.True(t, fused.MetadataSummary.HasSpeech)
	assert.Equal(t, "chef", fused.StaticMetadata.Author.Username)
	assert.That(t, fused.Insights.ObjectDiversity > 0)

	stored, err := svc.Get(traceContext, test.TestIdentity)
	assert.NoError(t, err)
	assert.Equal(t, encode(t, fused), encode(t, stored))

	assert.Equal(t, 1, len(index.runs))
	assert.Equal(t, fused.RunID, index.runs[0].RunID)

	span.SetStatus(codes.Ok, "passed - fuse-all-artifacts-test")
}

func TestFuseZeroArtifacts(t *testing.T) {
	svc, _ := newFileService(t, config, nil)

	fused, err := svc.Fuse(ctx, test.TestIdentity, model.ArtifactSet{}, nil)
	assert.NoError(t, err)
	assert.True(t, fused.Timelines.Empty())
	assert.Equal(t, 0, fused.PipelineStatus.Available())
	assert.Equal(t, len(model.AllSources), len(fused.PipelineStatus))
	assert.Equal(t, 1, fused.FrameCount)
	assert.False(t, fused.MetadataSummary.HasSpeech)

	_, err = svc.Get(ctx, test.TestIdentity)
	assert.NoError(t, err)
}

func TestFuseStaticArgumentOverridesSet(t *testing.T) {
	svc, _ := newFileService(t, config, nil)
	static := model.MustParseArtifact(model.SourceStaticMetadata, `{"description": "gym day", "duration": 20}`)

	fused, err := svc.Fuse(ctx, test.TestIdentity, test.GetTestArtifacts(t, model.SourceObjectDetection), static)
	assert.NoError(t, err)
	assert.Equal(t, 20.0, fused.Duration)
	assert.Equal(t, "gym day", fused.StaticMetadata.Caption)
	assert.True(t, fused.PipelineStatus[model.SourceStaticMetadata])
}

func TestFuseIsDeterministic(t *testing.T) {
	first, _ := newFileService(t, config, nil)
	second, _ := newFileService(t, config, nil)

	a, err := first.Fuse(ctx, test.TestIdentity, test.GetTestArtifacts(t), nil)
	assert.NoError(t, err)
	b, err := second.Fuse(ctx, test.TestIdentity, test.GetTestArtifacts(t), nil)
	assert.NoError(t, err)
	assert.Equal(t, encode(t, a), encode(t, b))

	again, err := first.Fuse(ctx, test.TestIdentity, test.GetTestArtifacts(t), nil)
	assert.NoError(t, err)
	assert.Equal(t, encode(t, a), encode(t, again))
}

func TestParallelBuildersMatchSequential(t *testing.T) {
	sequential := *config
	sequential.Application.ThreadPoolSize = 1
	parallel := *config
	parallel.Application.ThreadPoolSize = 16

	seqSvc, _ := newFileService(t, &sequential, nil)
	parSvc, _ := newFileService(t, &parallel, nil)

	a, err := seqSvc.Fuse(ctx, test.TestIdentity, test.GetTestArtifacts(t), nil)
	assert.NoError(t, err)
	for i := 0; i < 5; i++ {
		b, err := parSvc.Fuse(ctx, test.TestIdentity, test.GetTestArtifacts(t), nil)
		assert.NoError(t, err)
		assert.Equal(t, encode(t, a), encode(t, b))
	}
}

func TestPersistenceFailureKeepsPreviousDocument(t *testing.T) {
	store := &flakyStore{FileFusedStore: services.NewFileFusedStore(t.TempDir())}
	index := &recordingIndex{}
	svc := workflow.NewFusionService(config, nil, store, index, nil)
	svc.Clock = fixedClock

	first, err := svc.Fuse(ctx, test.TestIdentity, test.GetTestArtifacts(t, model.SourceObjectDetection), nil)
	assert.NoError(t, err)

	store.fail = true
	svc.Clock = func() time.Time { return fixedClock().Add(time.Hour) }
	fused, err := svc.Fuse(ctx, test.TestIdentity, test.GetTestArtifacts(t), nil)
	assert.Error(t, err)
	assert.That(t, errors.Is(err, model.ErrPersistence))
	assert.Nil(t, fused)
	assert.Equal(t, 1, len(index.runs))

	stored, err := svc.Get(ctx, test.TestIdentity)
	assert.NoError(t, err)
	assert.Equal(t, encode(t, first), encode(t, stored))
}

func TestRefuseReplacesWholeDocument(t *testing.T) {
	svc, _ := newFileService(t, config, nil)

	_, err := svc.Fuse(ctx, test.TestIdentity, test.GetTestArtifacts(t, model.SourceObjectDetection), nil)
	assert.NoError(t, err)

	svc.Clock = func() time.Time { return fixedClock().Add(time.Minute) }
	second, err := svc.Fuse(ctx, test.TestIdentity, test.GetTestArtifacts(t, model.SourceHumanAnalysis, model.SourceStaticMetadata), nil)
	assert.NoError(t, err)

	stored, err := svc.Get(ctx, test.TestIdentity)
	assert.NoError(t, err)
	assert.Equal(t, second.RunID, stored.RunID)
	assert.False(t, stored.PipelineStatus[model.SourceObjectDetection])
	assert.Equal(t, 0, len(stored.Timelines.ObjectPresence))
	assert.That(t, len(stored.Timelines.Gesture) > 0)
}

func TestFuseFromStore(t *testing.T) {
	svc, root := newFileService(t, config, nil)
	templates := config.ArtifactTemplates()
	test.WriteTestArtifacts(t, root, templates, test.TestIdentity)
	test.WriteRawArtifact(t, root, templates, test.TestIdentity, model.SourceObjectDetection, "not json at all")

	fused, err := svc.FuseFromStore(ctx, test.TestIdentity)
	assert.NoError(t, err)
	assert.False(t, fused.PipelineStatus[model.SourceObjectDetection])
	assert.Equal(t, len(model.AllSources)-1, fused.PipelineStatus.Available())
	// The human analysis summary takes over the frame count.
	assert.Equal(t, 10, fused.FrameCount)
	assert.Equal(t, 0, len(fused.Timelines.ObjectPresence))
}

func TestFuseFromStoreWithNothingWritten(t *testing.T) {
	svc, _ := newFileService(t, config, nil)

	fused, err := svc.FuseFromStore(ctx, test.TestIdentity)
	assert.NoError(t, err)
	assert.Equal(t, 0, fused.PipelineStatus.Available())
	assert.True(t, fused.Timelines.Empty())
}

func TestFuseIndexesIntoSQLite(t *testing.T) {
	index, err := services.NewSQLiteIndex(filepath.Join(t.TempDir(), "runs.db"), logger)
	assert.NoError(t, err)
	defer func() { _ = index.Close() }()
	svc, _ := newFileService(t, config, index)

	fused, err := svc.Fuse(ctx, test.TestIdentity, test.GetTestArtifacts(t), nil)
	assert.NoError(t, err)

	run, err := svc.LatestRun(ctx, test.TestIdentity)
	assert.NoError(t, err)
	assert.Equal(t, fused.RunID, run.RunID)
	assert.Equal(t, fused.FrameCount, run.FrameCount)
	assert.Equal(t, len(model.AllSources), run.PipelinesAvailable)
}

func TestFusionTriggerFromPubSubMessage(t *testing.T) {
	svc, root := newFileService(t, config, nil)
	test.WriteTestArtifacts(t, root, config.ArtifactTemplates(), test.TestIdentity)
	trigger := commands.NewFusionTrigger("fusion-trigger", svc)

	assert.True(t, cloud.HandleMessage(ctx, trigger, []byte(test.GetTestPipelineCompleteMessageText())))
	stored, err := svc.Get(ctx, test.TestIdentity)
	assert.NoError(t, err)
	assert.Equal(t, len(model.AllSources), stored.PipelineStatus.Available())

	assert.False(t, cloud.HandleMessage(ctx, trigger, []byte(`{"video_id": "../../etc"}`)))
	assert.False(t, cloud.HandleMessage(ctx, trigger, []byte(`garbage`)))
}
