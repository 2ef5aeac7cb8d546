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
)

// FusionIndexer records the persisted run in the fusion index. The fused
// document is the source of truth, so an index failure is only logged.
type FusionIndexer struct {
	cor.BaseCommand
	index services.FusionIndex
}

func NewFusionIndexer(name string, index services.FusionIndex) *FusionIndexer {
	return &FusionIndexer{BaseCommand: *cor.NewBaseCommand(name), index: index}
}

func (c *FusionIndexer) IsExecutable(context cor.Context) bool {
	return context != nil && c.index != nil && context.Get(services.ParamFused) != nil
}

func (c *FusionIndexer) Execute(context cor.Context) {
	fused := context.Get(services.ParamFused).(*model.FusedAnalysis)
	if err := c.index.Record(context.GetContext(), services.NewFusionRun(fused)); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		slog.WarnContext(context.GetContext(), "failed to index fusion run",
			"video", fused.Identity.Key(), "run_id", fused.RunID, "error", err)
		return
	}
	c.Succeeded(context)
}
