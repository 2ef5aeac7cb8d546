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

// Package insights reduces fused timelines into aggregate signals. Each
// insight is an independent pure function of the raw artifacts and the
// timelines, so they can be tested and tuned one at a time.
package insights

import (
	"math"
	"sort"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// Weights are the calibration constants of the scene complexity score.
type Weights struct {
	Object  float64 `toml:"object_weight"`
	Text    float64 `toml:"text_weight"`
	Gesture float64 `toml:"gesture_weight"`
	Scene   float64 `toml:"scene_weight"`
	Cap     float64 `toml:"complexity_cap"`
}

// DefaultWeights returns the stock calibration.
func DefaultWeights() Weights {
	return Weights{Object: 0.2, Text: 0.3, Gesture: 0.2, Scene: 0.3, Cap: 10}
}

const (
	primaryObjectLimit      = 5
	dominantExpressionLimit = 3
)

// Derive computes the full insight set.
func Derive(artifacts model.ArtifactSet, t model.Timelines, w Weights) model.InsightSet {
	human := humanInsights(artifacts.Get(model.SourceHumanAnalysis))
	set := model.InsightSet{
		ObjectDiversity:      ObjectDiversity(t),
		PrimaryObjects:       PrimaryObjects(t, primaryObjectLimit),
		CreativeDensity:      CreativeDensity(artifacts.Get(model.SourceCreativeAnalysis)),
		CreativeDensityPeaks: CreativeDensityPeaks(t),
		GestureCount:         GestureCount(t),
		TextOverlayFrequency: len(t.TextOverlay),
		HumanPresenceRate:    human.HumanPresence,
		AverageFaces:         human.AverageFaces,
		DominantExpressions:  DominantExpressions(t, dominantExpressionLimit),
		SceneComplexity:      SceneComplexity(t, w),
	}
	set.EngagementIndicators = EngagementIndicators(t, set)
	return set
}

// ObjectDiversity is the number of distinct object labels ever observed.
func ObjectDiversity(t model.Timelines) int {
	labels := map[string]struct{}{}
	for _, frame := range t.ObjectPresence {
		for label, count := range frame.Objects {
			if count > 0 {
				labels[label] = struct{}{}
			}
		}
	}
	return len(labels)
}

// PrimaryObjects returns the most frequent labels by total count, ties broken by label.
func PrimaryObjects(t model.Timelines, limit int) []model.LabelCount {
	counts := map[string]int{}
	for _, frame := range t.ObjectPresence {
		for label, count := range frame.Objects {
			if count > 0 {
				counts[label] += count
			}
		}
	}
	return topLabels(counts, limit)
}

// DominantExpressions returns the most frequent expressions across buckets.
func DominantExpressions(t model.Timelines, limit int) []model.LabelCount {
	counts := map[string]int{}
	for _, frame := range t.Expression {
		counts[frame.Expression]++
	}
	return topLabels(counts, limit)
}

// GestureCount is the sum of the per-bucket gesture list lengths.
func GestureCount(t model.Timelines) int {
	n := 0
	for _, frame := range t.Gesture {
		n += len(frame.Gestures)
	}
	return n
}

// CreativeDensity passes through the creative pipeline's own density figure.
func CreativeDensity(creative *model.Artifact) float64 {
	var density float64
	if creative.Decode(&density, "creative_density") == nil {
		return density
	}
	if creative.Decode(&density, "insights", "creative_density") == nil {
		return density
	}
	return 0
}

// CreativeDensityPeaks are the buckets whose combined text and sticker count
// is at least twice the mean over the buckets that have any.
func CreativeDensityPeaks(t model.Timelines) []model.Bucket {
	counts := map[model.Bucket]int{}
	for b, frame := range t.TextOverlay {
		counts[b] += len(frame.Texts)
	}
	for b, frame := range t.Sticker {
		counts[b] += len(frame.Stickers)
	}
	peaks := []model.Bucket{}
	if len(counts) < 2 {
		return peaks
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	mean := float64(total) / float64(len(counts))
	for b, c := range counts {
		if float64(c) >= 2*mean {
			peaks = append(peaks, b)
		}
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Index() < peaks[j].Index() })
	return peaks
}

// SceneComplexity is the weighted sum of the object, text, gesture and scene
// change bucket counts, clamped to [0, cap].
func SceneComplexity(t model.Timelines, w Weights) float64 {
	score := w.Object*float64(len(t.ObjectPresence)) +
		w.Text*float64(len(t.TextOverlay)) +
		w.Gesture*float64(len(t.Gesture)) +
		w.Scene*float64(len(t.SceneChange))
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	return math.Min(score, w.Cap)
}

func humanInsights(human *model.Artifact) model.HumanInsights {
	var hi model.HumanInsights
	_ = human.Decode(&hi, "insights")
	return hi
}

func topLabels(counts map[string]int, limit int) []model.LabelCount {
	out := make([]model.LabelCount, 0, len(counts))
	for label, count := range counts {
		out = append(out, model.LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
