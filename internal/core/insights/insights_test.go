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

package insights_test

import (
	"testing"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/insights"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func gestureTimeline(buckets int) model.Timeline[model.GestureFrame] {
	tl := model.Timeline[model.GestureFrame]{}
	for i := 1; i <= buckets; i++ {
		tl[model.BucketFor(i)] = model.GestureFrame{Frame: i, Gestures: []string{"wave", "point"}}
	}
	return tl
}

func TestObjectInsights(t *testing.T) {
	tl := model.NewTimelines()
	tl.ObjectPresence["0-1s"] = model.ObjectPresence{Frame: 1, Objects: map[string]int{"person": 1, "cup": 3}}
	tl.ObjectPresence["1-2s"] = model.ObjectPresence{Frame: 2, Objects: map[string]int{"person": 2, "bowl": 1, "ghost": 0}}

	assert.Equal(t, 3, insights.ObjectDiversity(tl))
	assert.Equal(t, []model.LabelCount{{Label: "cup", Count: 3}, {Label: "person", Count: 3}},
		insights.PrimaryObjects(tl, 2))
}

func TestPassThroughInsights(t *testing.T) {
	artifacts := model.ArtifactSet{}
	artifacts.Put(model.MustParseArtifact(model.SourceCreativeAnalysis, `{"insights": {"creative_density": 0.42}}`))
	artifacts.Put(model.MustParseArtifact(model.SourceHumanAnalysis, `{"insights": {"human_presence": 0.66, "average_faces": 1.5}}`))

	set := insights.Derive(artifacts, model.NewTimelines(), insights.DefaultWeights())
	assert.Equal(t, 0.42, set.CreativeDensity)
	assert.Equal(t, 0.66, set.HumanPresenceRate)
	assert.Equal(t, 1.5, set.AverageFaces)
	assert.Contains(t, set.EngagementIndicators, insights.TagStrongHumanPresence)

	top := model.MustParseArtifact(model.SourceCreativeAnalysis, `{"creative_density": 0.9}`)
	assert.Equal(t, 0.9, insights.CreativeDensity(top))
	assert.Equal(t, 0.0, insights.CreativeDensity(nil))
}

func TestGestureCountAndTextFrequency(t *testing.T) {
	tl := model.NewTimelines()
	tl.Gesture = gestureTimeline(3)
	tl.TextOverlay["4-5s"] = model.TextOverlay{Frame: 5, Texts: []model.TextElement{{Text: "a"}, {Text: "b"}}}

	set := insights.Derive(nil, tl, insights.DefaultWeights())
	assert.Equal(t, 6, set.GestureCount)
	assert.Equal(t, 1, set.TextOverlayFrequency)
}

func TestSceneComplexityFormula(t *testing.T) {
	tl := model.NewTimelines()
	tl.ObjectPresence["0-1s"] = model.ObjectPresence{Frame: 1}
	tl.TextOverlay["0-1s"] = model.TextOverlay{Frame: 1}
	tl.Gesture = gestureTimeline(2)
	tl.SceneChange["2-3s"] = model.SceneChangeFrame{Frame: 3}

	// 0.2*1 + 0.3*1 + 0.2*2 + 0.3*1
	assert.InDelta(t, 1.2, insights.SceneComplexity(tl, insights.DefaultWeights()), 1e-9)
}

func TestSceneComplexityIsClamped(t *testing.T) {
	tl := model.NewTimelines()
	for i := 1; i <= 500; i++ {
		b := model.BucketFor(i)
		tl.ObjectPresence[b] = model.ObjectPresence{Frame: i}
		tl.TextOverlay[b] = model.TextOverlay{Frame: i}
		tl.SceneChange[b] = model.SceneChangeFrame{Frame: i}
	}
	assert.Equal(t, 10.0, insights.SceneComplexity(tl, insights.DefaultWeights()))
	assert.Equal(t, 0.0, insights.SceneComplexity(model.NewTimelines(), insights.DefaultWeights()))

	negative := insights.Weights{Object: -1, Text: -1, Gesture: -1, Scene: -1, Cap: 10}
	assert.Equal(t, 0.0, insights.SceneComplexity(tl, negative))
}

func TestEarlyTextHook(t *testing.T) {
	for frame, expected := range map[int]bool{1: true, 3: true, 4: false, 9: false} {
		tl := model.NewTimelines()
		tl.TextOverlay[model.BucketFor(frame)] = model.TextOverlay{Frame: frame, Texts: []model.TextElement{{Text: "hook"}}}
		tags := insights.EngagementIndicators(tl, model.InsightSet{})
		if expected {
			assert.Contains(t, tags, insights.TagEarlyTextHook, "frame %d", frame)
		} else {
			assert.NotContains(t, tags, insights.TagEarlyTextHook, "frame %d", frame)
		}
	}
	assert.NotContains(t, insights.EngagementIndicators(model.NewTimelines(), model.InsightSet{}), insights.TagEarlyTextHook)
}

func TestHighGestureVariety(t *testing.T) {
	tl := model.NewTimelines()
	tl.Gesture = gestureTimeline(5)
	assert.NotContains(t, insights.EngagementIndicators(tl, model.InsightSet{}), insights.TagHighGestureVariety)

	tl.Gesture = gestureTimeline(6)
	assert.Contains(t, insights.EngagementIndicators(tl, model.InsightSet{}), insights.TagHighGestureVariety)
}

func TestIndicatorsAreSortedAndIndependent(t *testing.T) {
	tl := model.NewTimelines()
	tl.Gesture = gestureTimeline(6)
	tl.TextOverlay["0-1s"] = model.TextOverlay{Frame: 1}

	tags := insights.EngagementIndicators(tl, model.InsightSet{ObjectDiversity: 7})
	assert.Equal(t, []string{insights.TagDiverseVisuals, insights.TagEarlyTextHook, insights.TagHighGestureVariety}, tags)

	for _, rule := range insights.Rules {
		assert.False(t, rule.Match(model.NewTimelines(), model.InsightSet{}), rule.Tag)
	}
}

func TestCreativeDensityPeaks(t *testing.T) {
	tl := model.NewTimelines()
	tl.TextOverlay["0-1s"] = model.TextOverlay{Frame: 1, Texts: []model.TextElement{{Text: "a"}}}
	tl.TextOverlay["1-2s"] = model.TextOverlay{Frame: 2, Texts: []model.TextElement{{Text: "b"}}}
	tl.TextOverlay["2-3s"] = model.TextOverlay{Frame: 3, Texts: []model.TextElement{{Text: "c"}}}
	tl.Sticker["5-6s"] = model.StickerOverlay{Frame: 6, Stickers: []model.Sticker{{Type: "sticker"}, {Type: "emoji"}, {Type: "gif"}, {Type: "sticker"}, {Type: "sticker"}}}

	// Mean is 8/4 = 2, so only the five-element bucket reaches 2x.
	assert.Equal(t, []model.Bucket{"5-6s"}, insights.CreativeDensityPeaks(tl))
	assert.Equal(t, []model.Bucket{}, insights.CreativeDensityPeaks(model.NewTimelines()))
}

func TestDominantExpressions(t *testing.T) {
	tl := model.NewTimelines()
	tl.Expression["0-1s"] = model.ExpressionFrame{Frame: 1, Expression: "happy"}
	tl.Expression["1-2s"] = model.ExpressionFrame{Frame: 2, Expression: "happy"}
	tl.Expression["2-3s"] = model.ExpressionFrame{Frame: 3, Expression: "surprised"}

	assert.Equal(t, []model.LabelCount{{Label: "happy", Count: 2}, {Label: "surprised", Count: 1}},
		insights.DominantExpressions(tl, 3))
}
