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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const narratorMeterName = "github.com/jaycherian/gcp-go-media-fusion/narrator"

// GenAINarrator turns a prompt context into prose with a Vertex AI model.
type GenAINarrator struct {
	model              *QuotaAwareGenerativeAIModel
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

// NewGenAINarrator creates a narrator on the given agent model.
func NewGenAINarrator(model *QuotaAwareGenerativeAIModel) (*GenAINarrator, error) {
	if model == nil {
		return nil, errors.New("narrator requires an agent model")
	}
	meter := otel.Meter(narratorMeterName)
	n := &GenAINarrator{model: model}
	var err error
	if n.inputTokenCounter, err = meter.Int64Counter("narrator.token.input"); err != nil {
		slog.Warn("failed to create counter", "name", "narrator.token.input", "error", err)
	}
	if n.outputTokenCounter, err = meter.Int64Counter("narrator.token.output"); err != nil {
		slog.Warn("failed to create counter", "name", "narrator.token.output", "error", err)
	}
	if n.retryCounter, err = meter.Int64Counter("narrator.retry"); err != nil {
		slog.Warn("failed to create counter", "name", "narrator.retry", "error", err)
	}
	return n, nil
}

// GenerateNarrative asks the model to write about timelineContext following
// the named prompt.
func (n *GenAINarrator) GenerateNarrative(ctx context.Context, prompt string, timelineContext string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analysis focus: %s\n\n", prompt)
	sb.WriteString("Use only the fused video analysis below. Cite time buckets as written.\n\n")
	sb.WriteString(timelineContext)

	out, err := GenerateMultiModalResponse(ctx, n.inputTokenCounter, n.outputTokenCounter, n.retryCounter, 0, n.model, NewTextPart(sb.String()))
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}
	return out, nil
}
