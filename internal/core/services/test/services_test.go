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


// Package services_test contains the test suite for the services package:
// the artifact and fused stores, the run index and the FusionService
// operations that do not need the full workflow.
package services_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-media-fusion/internal/cloud"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/promptctx"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
	test "github.com/jaycherian/gcp-go-media-fusion/internal/testutil"
	"github.com/zeebo/assert"
)

var ctx = context.Background()

func sampleAnalysis(fusedAt time.Time) *model.FusedAnalysis {
	timelines := model.NewTimelines()
	timelines.ObjectPresence["0-1s"] = model.ObjectPresence{Frame: 1, Objects: map[string]int{"person": 1}, TotalObjects: 1}
	timelines.ObjectPresence["1-2s"] = model.ObjectPresence{Frame: 2, Objects: map[string]int{"person": 2}, TotalObjects: 2}
	timelines.TextOverlay["0-1s"] = model.TextOverlay{Frame: 1, Texts: []model.TextElement{{Text: "WAIT FOR IT"}}}
	return &model.FusedAnalysis{
		Identity:       test.TestIdentity,
		RunID:          model.NewRunID(test.TestIdentity, fusedAt),
		FusedAt:        fusedAt,
		FrameCount:     10,
		Duration:       10,
		Timelines:      timelines,
		PipelineStatus: model.PipelineStatus{model.SourceObjectDetection: true},
		Insights:       model.InsightSet{SceneComplexity: 1.5, EngagementIndicators: []string{"early_text_hook"}},
	}
}

func TestArtifactTemplatesPath(t *testing.T) {
	templates := services.ArtifactTemplates(cloud.NewConfig().ArtifactTemplates())

	path, err := templates.Path(test.TestIdentity, model.SourceObjectDetection)
	assert.NoError(t, err)
	assert.Equal(t, "object_detection/acct42_7301234567890/acct42_7301234567890_detections.json", path)

	_, err = templates.Path(model.NewVideoIdentity("../etc", ""), model.SourceObjectDetection)
	assert.That(t, errors.Is(err, model.ErrInvalidIdentity))

	_, err = services.ArtifactTemplates{}.Path(test.TestIdentity, model.SourceObjectDetection)
	assert.Error(t, err)
}

func TestFileArtifactStore(t *testing.T) {
	root := t.TempDir()
	templates := cloud.NewConfig().ArtifactTemplates()
	test.WriteTestArtifacts(t, root, templates, test.TestIdentity, model.SourceObjectDetection, model.SourceStaticMetadata)
	store := services.NewFileArtifactStore(root, templates)

	sources, err := store.ListArtifacts(ctx, test.TestIdentity)
	assert.NoError(t, err)
	assert.DeepEqual(t, []model.Source{model.SourceObjectDetection, model.SourceStaticMetadata}, sources)

	data, err := store.ReadArtifact(ctx, test.TestIdentity, model.SourceObjectDetection)
	assert.NoError(t, err)
	assert.Equal(t, test.ArtifactBodies()[model.SourceObjectDetection], string(data))

	_, err = store.ReadArtifact(ctx, test.TestIdentity, model.SourceAudioAnalysis)
	assert.That(t, errors.Is(err, model.ErrNotFound))
}

func TestFileFusedStoreRoundTrip(t *testing.T) {
	store := services.NewFileFusedStore(filepath.Join(t.TempDir(), "fused"))
	analysis := sampleAnalysis(time.Date(2024, 10, 11, 3, 4, 8, 0, time.UTC))

	assert.NoError(t, store.Write(ctx, analysis))
	got, err := store.Read(ctx, test.TestIdentity)
	assert.NoError(t, err)

	want, _ := services.EncodeFused(analysis)
	encoded, _ := services.EncodeFused(got)
	assert.Equal(t, string(want), string(encoded))

	entries, err := os.ReadDir(store.Dir)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, "acct42_7301234567890.json", entries[0].Name())

	assert.NoError(t, store.Delete(ctx, test.TestIdentity))
	_, err = store.Read(ctx, test.TestIdentity)
	assert.That(t, errors.Is(err, model.ErrNotFound))
	assert.NoError(t, store.Delete(ctx, test.TestIdentity))
}

func TestFileFusedStoreFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "fused")
	assert.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	store := services.NewFileFusedStore(blocker)
	assert.Error(t, store.Write(ctx, sampleAnalysis(time.Now())))

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries))
}

func TestFileFusedStoreReplacesPrevious(t *testing.T) {
	store := services.NewFileFusedStore(t.TempDir())
	first := sampleAnalysis(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	second := sampleAnalysis(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	second.FrameCount = 30

	assert.NoError(t, store.Write(ctx, first))
	assert.NoError(t, store.Write(ctx, second))
	got, err := store.Read(ctx, test.TestIdentity)
	assert.NoError(t, err)
	assert.Equal(t, 30, got.FrameCount)
	assert.Equal(t, second.RunID, got.RunID)

	entries, _ := os.ReadDir(store.Dir)
	assert.Equal(t, 1, len(entries))
}

func TestSQLiteIndexRoundTrip(t *testing.T) {
	index, err := services.NewSQLiteIndex(filepath.Join(t.TempDir(), "runs.db"), nil)
	assert.NoError(t, err)
	defer func() { _ = index.Close() }()

	_, err = index.Latest(ctx, test.TestIdentity.Key())
	assert.That(t, errors.Is(err, model.ErrNotFound))

	older := services.NewFusionRun(sampleAnalysis(time.Date(2024, 1, 1, 0, 0, 0, 5, time.UTC)))
	newer := services.NewFusionRun(sampleAnalysis(time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)))
	assert.NoError(t, index.Record(ctx, newer))
	assert.NoError(t, index.Record(ctx, older))
	// Recording the same run twice replaces the row.
	assert.NoError(t, index.Record(ctx, older))

	latest, err := index.Latest(ctx, test.TestIdentity.Key())
	assert.NoError(t, err)
	assert.Equal(t, newer.RunID, latest.RunID)
	assert.That(t, newer.FusedAt.Equal(latest.FusedAt))
	assert.Equal(t, "early_text_hook", latest.Indicators)
	assert.Equal(t, 1, latest.PipelinesAvailable)
	assert.False(t, latest.Degraded)
}

func TestSQLiteIndexReopenSkipsAppliedMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	index, err := services.NewSQLiteIndex(path, nil)
	assert.NoError(t, err)
	run := services.NewFusionRun(sampleAnalysis(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.NoError(t, index.Record(ctx, run))
	assert.NoError(t, index.Close())

	reopened, err := services.NewSQLiteIndex(path, nil)
	assert.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	latest, err := reopened.Latest(ctx, run.IdentityKey)
	assert.NoError(t, err)
	assert.Equal(t, run.RunID, latest.RunID)
}

func TestNewFusionRunMarksDegraded(t *testing.T) {
	analysis := sampleAnalysis(time.Now())
	analysis.Duration = 0
	assert.True(t, services.NewFusionRun(analysis).Degraded)
}

// storedWorkflow answers every run with a fixed analysis, as the fusion
// workflow would after persisting it.
type storedWorkflow struct {
	cor.BaseCommand
	analysis *model.FusedAnalysis
	fail     error
}

func (w *storedWorkflow) Execute(context cor.Context) {
	if w.fail != nil {
		w.Failed(context, w.fail)
		return
	}
	context.Add(services.ParamFused, w.analysis)
}

type fakeNarrator struct {
	prompt  string
	context string
}

func (n *fakeNarrator) GenerateNarrative(_ context.Context, prompt string, timelineContext string) (string, error) {
	n.prompt = prompt
	n.context = timelineContext
	return "strong hook in the first second", nil
}

func newService(t *testing.T, analysis *model.FusedAnalysis, narrator services.NarrativeGenerator) *services.FusionService {
	t.Helper()
	fused := services.NewFileFusedStore(t.TempDir())
	if analysis != nil {
		assert.NoError(t, fused.Write(ctx, analysis))
	}
	workflow := &storedWorkflow{BaseCommand: *cor.NewBaseCommand("stored"), analysis: analysis}
	return services.NewFusionService(nil, fused, nil, narrator, workflow)
}

func TestFusionServiceRejectsInvalidIdentity(t *testing.T) {
	svc := newService(t, nil, nil)
	bad := model.NewVideoIdentity("", "")

	_, err := svc.Fuse(ctx, bad, model.ArtifactSet{}, nil)
	assert.That(t, errors.Is(err, model.ErrInvalidIdentity))
	_, err = svc.FuseFromStore(ctx, bad)
	assert.That(t, errors.Is(err, model.ErrInvalidIdentity))
	_, err = svc.Get(ctx, bad)
	assert.That(t, errors.Is(err, model.ErrInvalidIdentity))
	assert.That(t, errors.Is(svc.Delete(ctx, bad), model.ErrInvalidIdentity))
}

func TestFusionServiceJoinsChainErrors(t *testing.T) {
	svc := newService(t, nil, nil)
	svc.Workflow = &storedWorkflow{BaseCommand: *cor.NewBaseCommand("stored"), fail: model.ErrPersistence}

	_, err := svc.Fuse(ctx, test.TestIdentity, model.ArtifactSet{}, nil)
	assert.That(t, errors.Is(err, model.ErrPersistence))
}

func TestFusionServiceLatestRunWithoutIndex(t *testing.T) {
	svc := newService(t, nil, nil)
	_, err := svc.LatestRun(ctx, test.TestIdentity)
	assert.That(t, errors.Is(err, model.ErrNotFound))
}

func TestFusionServiceContext(t *testing.T) {
	svc := newService(t, sampleAnalysis(time.Now().UTC()), nil)

	pc, err := svc.Context(ctx, test.TestIdentity, "hook_analysis")
	assert.NoError(t, err)
	assert.Equal(t, promptctx.PromptHookAnalysis, pc.Prompt)
	assert.That(t, len(pc.Summary) > 0)

	_, err = svc.Context(ctx, test.TestIdentity, "horoscope")
	assert.That(t, errors.Is(err, promptctx.ErrUnknownPrompt))

	_, err = svc.Context(ctx, model.NewVideoIdentity("missing", ""), "general")
	assert.That(t, errors.Is(err, model.ErrNotFound))
}

func TestFusionServiceNarrate(t *testing.T) {
	_, err := newService(t, sampleAnalysis(time.Now().UTC()), nil).Narrate(ctx, test.TestIdentity, "general")
	assert.That(t, errors.Is(err, services.ErrNarratorUnavailable))

	narrator := &fakeNarrator{}
	svc := newService(t, sampleAnalysis(time.Now().UTC()), narrator)
	narrative, err := svc.Narrate(ctx, test.TestIdentity, "hook_analysis")
	assert.NoError(t, err)
	assert.Equal(t, "strong hook in the first second", narrative.Text)
	assert.Equal(t, "hook_analysis", narrator.prompt)
	assert.That(t, len(narrator.context) > 0)
}

func TestFusionServiceNarrateRefusesInvalidAnalysis(t *testing.T) {
	svc := newService(t, nil, &fakeNarrator{})
	// A document without an identity can only come from outside the engine.
	dir := svc.Fused.(*services.FileFusedStore).Dir
	path := filepath.Join(dir, test.TestIdentity.Key()+".json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"identity": {"video_id": ""}, "duration": 10}`), 0o644))

	_, err := svc.Narrate(ctx, test.TestIdentity, "general")
	assert.That(t, errors.Is(err, services.ErrUntrustedAnalysis))
}
