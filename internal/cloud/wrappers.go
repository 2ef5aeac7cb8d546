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

// Package cloud provides components for interacting with Google Cloud services.
// This file implements a decorator around the Generative AI model handle that
// adds rate limiting and a bounded retry with back off.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: Couples a model name and generation config
//     with a rate limiter.
//
// Functions:
//   - NewQuotaAwareModel: A constructor to create a new instance of the wrapped model.
//   - GenerateContent: Waits for the limiter and calls the model, retrying failures.
package cloud

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the subset of *genai.Models used by the wrapper.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel is a decorator around a ContentGenerator that
// keeps the request rate under the configured quota.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             ContentGenerator
	RateLimit               *rate.Limiter
	// RetryDelay is the wait before the first retry; it doubles on each attempt.
	RetryDelay time.Duration
	// MaxRetries bounds the retries of a single call. Callers going through
	// GenerateMultiModalResponse get its retries on top.
	MaxRetries int
}

// NewQuotaAwareModel wraps handle so that at most requestsPerSecond calls are
// made per second, with bursts of the same size.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, handle ContentGenerator, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		RetryDelay:              2 * time.Second,
		MaxRetries:              1,
	}
}

// GenerateContent blocks until the limiter admits the request, then calls the
// model. Failed calls are retried with exponential back off until MaxRetries
// is exhausted or ctx is done.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	delay := q.RetryDelay
	var lastErr error
	for attempt := 0; attempt <= q.MaxRetries; attempt++ {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == q.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, fmt.Errorf("generation failed after %d attempts: %w", q.MaxRetries+1, lastErr)
}
