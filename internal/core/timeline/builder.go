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

package timeline

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// Input is everything a builder may read.
type Input struct {
	Artifacts  model.ArtifactSet
	Normalizer Normalizer
}

// BuildFunc fills exactly one category field of out. Builders for different
// categories write disjoint fields and may run concurrently.
type BuildFunc func(in Input, out *model.Timelines)

// Builder pairs a category with its build function.
type Builder struct {
	Category model.Category
	Build    BuildFunc
}

// Builders returns one builder per category in output order.
func Builders() []Builder {
	return []Builder{
		{model.CategoryObjectPresence, func(in Input, out *model.Timelines) { out.ObjectPresence = BuildObjectPresence(in) }},
		{model.CategoryTextOverlay, func(in Input, out *model.Timelines) { out.TextOverlay = BuildTextOverlay(in) }},
		{model.CategorySticker, func(in Input, out *model.Timelines) { out.Sticker = BuildSticker(in) }},
		{model.CategoryGesture, func(in Input, out *model.Timelines) { out.Gesture = BuildGesture(in) }},
		{model.CategoryExpression, func(in Input, out *model.Timelines) { out.Expression = BuildExpression(in) }},
		{model.CategoryCameraDistance, func(in Input, out *model.Timelines) { out.CameraDistance = BuildCameraDistance(in) }},
		{model.CategorySceneChange, func(in Input, out *model.Timelines) { out.SceneChange = BuildSceneChange(in) }},
		{model.CategorySpeech, func(in Input, out *model.Timelines) { out.Speech = BuildSpeech(in) }},
		{model.CategoryAudioRatio, func(in Input, out *model.Timelines) { out.AudioRatio = BuildAudioRatio(in) }},
	}
}

// BuildAll runs every builder sequentially.
func BuildAll(in Input) model.Timelines {
	out := model.NewTimelines()
	for _, b := range Builders() {
		b.Build(in, &out)
	}
	return out
}

// decodeList decodes a list field for a builder. A missing field is silent;
// a malformed one is logged and reported as unusable.
func decodeList[T any](category model.Category, a *model.Artifact, path ...string) ([]T, bool) {
	if !a.Present() {
		return nil, false
	}
	items, skipped, err := model.DecodeList[T](a, path...)
	if err != nil {
		if !errors.Is(err, model.ErrFieldMissing) {
			slog.Warn("malformed artifact field, category degraded to empty",
				"category", category, "source", a.Source, "field", strings.Join(path, "."), "error", err)
		}
		return nil, false
	}
	if skipped > 0 {
		slog.Warn("skipped malformed artifact entries",
			"category", category, "source", a.Source, "field", strings.Join(path, "."), "skipped", skipped)
	}
	return items, true
}

// keepLowestFrame returns the smaller positive frame of a and b.
func keepLowestFrame(existing, candidate int) int {
	if existing == 0 || candidate < existing {
		return candidate
	}
	return existing
}
