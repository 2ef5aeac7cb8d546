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


package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/promptctx"
)

var (
	// ErrNarratorUnavailable is returned by Narrate when no generator is configured.
	ErrNarratorUnavailable = errors.New("narrative generator not configured")
	// ErrUntrustedAnalysis is returned by Narrate when validation reports errors.
	ErrUntrustedAnalysis = errors.New("analysis failed validation")
)

// NarrativeGenerator writes prose about a rendered prompt context.
type NarrativeGenerator interface {
	GenerateNarrative(ctx context.Context, prompt string, timelineContext string) (string, error)
}

// Narrative is the generated text for one prompt.
type Narrative struct {
	Identity model.VideoIdentity `json:"identity"`
	Prompt   promptctx.Prompt    `json:"prompt"`
	Text     string              `json:"text"`
	Issues   []promptctx.Issue   `json:"issues"`
}

// FusionService is the entry point of the fusion engine. Runs are idempotent:
// fusing the same artifacts under the same clock reading produces a byte
// identical document, and re-running after more pipelines complete replaces
// the previous document wholesale.
type FusionService struct {
	Artifacts ArtifactStore
	Fused     FusedStore
	Index     FusionIndex
	Narrator  NarrativeGenerator
	Workflow  cor.Command
	Clock     func() time.Time
}

// NewFusionService wires a service. index and narrator may be nil.
func NewFusionService(artifacts ArtifactStore, fused FusedStore, index FusionIndex, narrator NarrativeGenerator, workflow cor.Command) *FusionService {
	if index == nil {
		index = NopIndex{}
	}
	return &FusionService{
		Artifacts: artifacts,
		Fused:     fused,
		Index:     index,
		Narrator:  narrator,
		Workflow:  workflow,
		Clock:     time.Now,
	}
}

func (s *FusionService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock().UTC()
}

// Fuse fuses the given artifacts. static may be nil, and may also be passed
// inside artifacts.
func (s *FusionService) Fuse(ctx context.Context, id model.VideoIdentity, artifacts model.ArtifactSet, static *model.Artifact) (*model.FusedAnalysis, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	set := model.ArtifactSet{}
	for source, a := range artifacts {
		if a != nil {
			set[source] = a
		}
	}
	if static != nil {
		set[model.SourceStaticMetadata] = static
	}
	chCtx := s.newRunContext(ctx, id)
	chCtx.Add(ParamArtifacts, set)
	return s.run(chCtx, id)
}

// FuseFromStore loads every available artifact from the artifact store and fuses them.
func (s *FusionService) FuseFromStore(ctx context.Context, id model.VideoIdentity) (*model.FusedAnalysis, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.run(s.newRunContext(ctx, id), id)
}

func (s *FusionService) newRunContext(ctx context.Context, id model.VideoIdentity) cor.Context {
	chCtx := cor.NewContextWith(ctx, id)
	chCtx.Add(ParamIdentity, id)
	chCtx.Add(ParamFusedAt, s.now())
	return chCtx
}

func (s *FusionService) run(chCtx cor.Context, id model.VideoIdentity) (*model.FusedAnalysis, error) {
	s.Workflow.Execute(chCtx)
	if err := cor.JoinErrors(chCtx); err != nil {
		slog.ErrorContext(chCtx.GetContext(), "fusion failed", "video", id.Key(), "error", err)
		return nil, err
	}
	fused, ok := chCtx.Get(ParamFused).(*model.FusedAnalysis)
	if !ok || fused == nil {
		return nil, fmt.Errorf("fusion of %s produced no analysis", id)
	}
	slog.InfoContext(chCtx.GetContext(), "fusion complete",
		"video", id.Key(), "run_id", fused.RunID, "pipelines", fused.PipelineStatus.Available())
	return fused, nil
}

// Get returns the persisted analysis.
func (s *FusionService) Get(ctx context.Context, id model.VideoIdentity) (*model.FusedAnalysis, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.Fused.Read(ctx, id)
}

// Delete removes the persisted analysis. Deleting a missing analysis is not an error.
func (s *FusionService) Delete(ctx context.Context, id model.VideoIdentity) error {
	if err := id.Validate(); err != nil {
		return err
	}
	return s.Fused.Delete(ctx, id)
}

// LatestRun returns the newest index row of the identity.
func (s *FusionService) LatestRun(ctx context.Context, id model.VideoIdentity) (*FusionRun, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.Index.Latest(ctx, id.Key())
}

// Context extracts the prompt context of the persisted analysis.
func (s *FusionService) Context(ctx context.Context, id model.VideoIdentity, prompt string) (promptctx.PromptContext, error) {
	p, err := promptctx.ParsePrompt(prompt)
	if err != nil {
		return promptctx.PromptContext{}, err
	}
	fused, err := s.Get(ctx, id)
	if err != nil {
		return promptctx.PromptContext{}, err
	}
	return promptctx.Extract(fused, p)
}

// Narrate generates a narrative for the prompt from the persisted analysis.
func (s *FusionService) Narrate(ctx context.Context, id model.VideoIdentity, prompt string) (*Narrative, error) {
	if s.Narrator == nil {
		return nil, ErrNarratorUnavailable
	}
	pc, err := s.Context(ctx, id, prompt)
	if err != nil {
		return nil, err
	}
	if promptctx.HasErrors(pc.Issues) {
		return nil, fmt.Errorf("%w: %s", ErrUntrustedAnalysis, id)
	}
	text, err := s.Narrator.GenerateNarrative(ctx, string(pc.Prompt), pc.Summary)
	if err != nil {
		return nil, err
	}
	return &Narrative{Identity: id, Prompt: pc.Prompt, Text: text, Issues: pc.Issues}, nil
}
