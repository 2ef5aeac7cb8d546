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
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-media-fusion/internal/cloud"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// StoreFuser re-fuses a video from whatever artifacts are currently stored.
type StoreFuser interface {
	FuseFromStore(ctx context.Context, id model.VideoIdentity) (*model.FusedAnalysis, error)
}

// FusionTrigger handles pipeline completion messages. Every message re-runs
// the fusion from the store; a failure is recorded so the message is
// redelivered.
type FusionTrigger struct {
	cor.BaseCommand
	fuser StoreFuser
}

func NewFusionTrigger(name string, fuser StoreFuser) *FusionTrigger {
	return &FusionTrigger{BaseCommand: *cor.NewBaseCommand(name), fuser: fuser}
}

func (c *FusionTrigger) Execute(context cor.Context) {
	in, ok := context.Get(c.GetInputParam()).(string)
	if !ok {
		c.Failed(context, fmt.Errorf("unexpected trigger payload %T", context.Get(c.GetInputParam())))
		return
	}
	msg, err := cloud.ParsePipelineCompletion([]byte(in))
	if err != nil {
		c.Failed(context, err)
		return
	}
	slog.InfoContext(context.GetContext(), "pipeline completed, re-fusing",
		"video", msg.Identity().Key(), "pipeline", msg.Pipeline)

	fused, err := c.fuser.FuseFromStore(context.GetContext(), msg.Identity())
	if err != nil {
		c.Failed(context, err)
		return
	}
	context.Add(c.GetOutputParam(), fused)
	c.Succeeded(context)
}
