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

// Package timeline converts raw pipeline artifacts into bucketed, per-category
// timelines. Every builder routes its time values through the Normalizer so
// that buckets line up across sources regardless of how each one encodes time.
//
// Builders are pure functions: they never return errors and never panic on a
// malformed artifact, they log the problem and return an empty timeline.
package timeline

import (
	"math"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// Normalizer maps raw time values into canonical buckets for one video.
type Normalizer struct {
	frameCount int
	duration   float64
	degraded   bool
}

// NewNormalizer creates a Normalizer. A frameCount below 1 is treated as 1,
// collapsing the video into a single bucket for time inputs. A non-positive or
// non-finite duration puts the normalizer in degraded single-bucket mode.
func NewNormalizer(frameCount int, duration float64) Normalizer {
	if frameCount < 1 {
		frameCount = 1
	}
	degraded := duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0)
	return Normalizer{frameCount: frameCount, duration: duration, degraded: degraded}
}

// Degraded reports whether every value maps to the first bucket.
func (n Normalizer) Degraded() bool {
	return n.degraded
}

// FrameCount returns the effective frame count.
func (n Normalizer) FrameCount() int {
	return n.frameCount
}

// Duration returns the duration the normalizer was created with.
func (n Normalizer) Duration() float64 {
	return n.duration
}

// Rate returns the effective frame rate, or 0 in degraded mode.
func (n Normalizer) Rate() float64 {
	if n.degraded {
		return 0
	}
	return float64(n.frameCount) / n.duration
}

// Index returns the 1-based frame index for a raw time value.
func (n Normalizer) Index(raw model.TimeValue) int {
	if n.degraded {
		return 1
	}
	var index int
	if raw.Kind() == model.KindFrame {
		index = raw.FrameIndex()
	} else {
		t := raw.Flatten()
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 1
		}
		index = int(math.Round(t * n.Rate()))
	}
	if index < 1 {
		index = 1
	}
	return index
}

// Bucket returns the bucket and the frame index for a raw time value.
func (n Normalizer) Bucket(raw model.TimeValue) (model.Bucket, int) {
	index := n.Index(raw)
	return model.BucketFor(index), index
}

// ToBucket is the single entry point for converting a time value into a bucket.
func ToBucket(raw model.TimeValue, frameCount int, duration float64) model.Bucket {
	b, _ := NewNormalizer(frameCount, duration).Bucket(raw)
	return b
}
