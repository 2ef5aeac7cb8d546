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


package promptctx

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// Prompt names one analysis a narrative can be generated for.
type Prompt string

const (
	PromptHookAnalysis     Prompt = "hook_analysis"
	PromptCreativeDensity  Prompt = "creative_density"
	PromptEmotionalJourney Prompt = "emotional_journey"
	PromptSpeechAnalysis   Prompt = "speech_analysis"
	PromptVisualHook       Prompt = "visual_hook"
	PromptPacing           Prompt = "pacing"
	PromptGeneral          Prompt = "general"
)

const (
	// HookWindowSeconds is the opening window used by hook prompts.
	HookWindowSeconds = 5
	// MaxSampledBuckets bounds the buckets kept per category for full video prompts.
	MaxSampledBuckets = 20
)

// ErrUnknownPrompt is returned for a prompt name outside Prompts.
var ErrUnknownPrompt = errors.New("unknown prompt")

// promptCategories lists the categories each prompt reads, in output order.
var promptCategories = map[Prompt][]model.Category{
	PromptHookAnalysis: model.AllCategories,
	PromptCreativeDensity: {
		model.CategoryTextOverlay, model.CategorySticker, model.CategoryObjectPresence,
	},
	PromptEmotionalJourney: {
		model.CategoryExpression, model.CategoryGesture, model.CategorySpeech, model.CategoryAudioRatio,
	},
	PromptSpeechAnalysis: {
		model.CategorySpeech, model.CategoryAudioRatio,
	},
	PromptVisualHook: {
		model.CategoryObjectPresence, model.CategoryTextOverlay, model.CategorySticker,
		model.CategoryCameraDistance, model.CategorySceneChange,
	},
	PromptPacing: {
		model.CategorySceneChange, model.CategoryCameraDistance, model.CategorySpeech, model.CategoryAudioRatio,
	},
	PromptGeneral: model.AllCategories,
}

// Prompts lists the supported prompts.
var Prompts = []Prompt{
	PromptHookAnalysis,
	PromptCreativeDensity,
	PromptEmotionalJourney,
	PromptSpeechAnalysis,
	PromptVisualHook,
	PromptPacing,
	PromptGeneral,
}

// ParsePrompt validates a prompt name.
func ParsePrompt(name string) (Prompt, error) {
	p := Prompt(name)
	if _, ok := promptCategories[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPrompt, name)
	}
	return p, nil
}

// HookWindow reports whether the prompt only looks at the opening seconds.
func (p Prompt) HookWindow() bool {
	return p == PromptHookAnalysis || p == PromptVisualHook
}

// PromptContext is the data handed to a narrative generator for one prompt.
type PromptContext struct {
	Prompt          Prompt                `json:"prompt"`
	Identity        model.VideoIdentity   `json:"identity"`
	Duration        float64               `json:"duration"`
	Caption         string                `json:"caption"`
	MetadataSummary model.MetadataSummary `json:"metadata_summary"`
	Insights        model.InsightSet      `json:"insights"`
	Categories      []model.Category      `json:"categories"`
	Timelines       model.Timelines       `json:"timelines"`
	Summary         string                `json:"summary"`
	Issues          []Issue               `json:"issues"`
}

// Extract selects the timelines relevant to prompt. Hook prompts keep the
// buckets ending within HookWindowSeconds; the others keep at most
// MaxSampledBuckets evenly spaced buckets per category.
func Extract(fused *model.FusedAnalysis, prompt Prompt) (PromptContext, error) {
	categories, ok := promptCategories[prompt]
	if !ok {
		return PromptContext{}, fmt.Errorf("%w: %q", ErrUnknownPrompt, prompt)
	}
	if fused == nil {
		return PromptContext{}, errors.New("no analysis to extract from")
	}

	sel := selector{hook: prompt.HookWindow()}
	timelines := model.NewTimelines()
	for _, c := range categories {
		sel.copyCategory(c, fused.Timelines, &timelines)
	}

	pc := PromptContext{
		Prompt:          prompt,
		Identity:        fused.Identity,
		Duration:        fused.Duration,
		Caption:         fused.StaticMetadata.Caption,
		MetadataSummary: fused.MetadataSummary,
		Insights:        fused.Insights,
		Categories:      categories,
		Timelines:       timelines,
		Issues:          Validate(fused),
	}
	pc.Summary = Render(pc)
	return pc, nil
}

type selector struct {
	hook bool
}

func (s selector) copyCategory(c model.Category, src model.Timelines, dst *model.Timelines) {
	switch c {
	case model.CategoryObjectPresence:
		dst.ObjectPresence = reduce(s, src.ObjectPresence)
	case model.CategoryTextOverlay:
		dst.TextOverlay = reduce(s, src.TextOverlay)
	case model.CategorySticker:
		dst.Sticker = reduce(s, src.Sticker)
	case model.CategoryGesture:
		dst.Gesture = reduce(s, src.Gesture)
	case model.CategoryExpression:
		dst.Expression = reduce(s, src.Expression)
	case model.CategoryCameraDistance:
		dst.CameraDistance = reduce(s, src.CameraDistance)
	case model.CategorySceneChange:
		dst.SceneChange = reduce(s, src.SceneChange)
	case model.CategorySpeech:
		dst.Speech = reduce(s, src.Speech)
	case model.CategoryAudioRatio:
		dst.AudioRatio = reduce(s, src.AudioRatio)
	}
}

func reduce[T any](s selector, t model.Timeline[T]) model.Timeline[T] {
	if s.hook {
		return Window(t, HookWindowSeconds)
	}
	return Sample(t, MaxSampledBuckets)
}

// Window keeps the buckets whose end second is at most seconds.
func Window[T any](t model.Timeline[T], seconds int) model.Timeline[T] {
	out := model.Timeline[T]{}
	for b, v := range t {
		if i := b.Index(); i >= 1 && i <= seconds {
			out[b] = v
		}
	}
	return out
}

// Sample keeps at most limit buckets spread evenly over the timeline, always
// including the first one.
func Sample[T any](t model.Timeline[T], limit int) model.Timeline[T] {
	out := model.Timeline[T]{}
	if limit < 1 {
		return out
	}
	buckets := model.SortedBuckets(t)
	if len(buckets) <= limit {
		for _, b := range buckets {
			out[b] = t[b]
		}
		return out
	}
	for i := 0; i < limit; i++ {
		b := buckets[i*len(buckets)/limit]
		out[b] = t[b]
	}
	return out
}

// Render writes the textual form of a prompt context: a metadata header
// followed by one section per category.
func Render(pc PromptContext) string {
	var sb strings.Builder
	ms := pc.MetadataSummary
	fmt.Fprintf(&sb, "video: %s\n", pc.Identity.Key())
	fmt.Fprintf(&sb, "duration: %s\n", ms.FormattedDuration)
	if pc.Caption != "" {
		fmt.Fprintf(&sb, "caption: %s\n", pc.Caption)
	}
	if ms.HashtagText != "" {
		fmt.Fprintf(&sb, "hashtags: %s\n", ms.HashtagText)
	}
	fmt.Fprintf(&sb, "topic: %s, sentiment: %s\n", ms.CaptionTopic, ms.CaptionSentiment)
	fmt.Fprintf(&sb, "engagement: %d views, %d likes, %d comments, %d shares, %.2f%% rate\n",
		ms.Views, ms.Likes, ms.Comments, ms.Shares, ms.EngagementRate)
	if len(pc.Insights.EngagementIndicators) > 0 {
		fmt.Fprintf(&sb, "indicators: %s\n", strings.Join(pc.Insights.EngagementIndicators, ", "))
	}
	if pc.Prompt.HookWindow() {
		fmt.Fprintf(&sb, "window: first %d seconds\n", HookWindowSeconds)
	}

	t := pc.Timelines
	for _, c := range pc.Categories {
		switch c {
		case model.CategoryObjectPresence:
			section(&sb, c, t.ObjectPresence, func(v model.ObjectPresence) string {
				return fmt.Sprintf("%d objects %s", v.TotalObjects, labelCounts(v.Objects))
			})
		case model.CategoryTextOverlay:
			section(&sb, c, t.TextOverlay, func(v model.TextOverlay) string {
				texts := make([]string, 0, len(v.Texts))
				for _, e := range v.Texts {
					texts = append(texts, fmt.Sprintf("%q", e.Text))
				}
				return strings.Join(texts, ", ")
			})
		case model.CategorySticker:
			section(&sb, c, t.Sticker, func(v model.StickerOverlay) string {
				items := make([]string, 0, len(v.Stickers))
				for _, s := range v.Stickers {
					items = append(items, fmt.Sprintf("%s %s", s.Type, s.Description))
				}
				return strings.Join(items, ", ")
			})
		case model.CategoryGesture:
			section(&sb, c, t.Gesture, func(v model.GestureFrame) string {
				return strings.Join(v.Gestures, ", ")
			})
		case model.CategoryExpression:
			section(&sb, c, t.Expression, func(v model.ExpressionFrame) string {
				return fmt.Sprintf("%s (%.2f)", v.Expression, v.Confidence)
			})
		case model.CategoryCameraDistance:
			section(&sb, c, t.CameraDistance, func(v model.CameraFraming) string {
				return v.Distance
			})
		case model.CategorySceneChange:
			section(&sb, c, t.SceneChange, func(v model.SceneChangeFrame) string {
				return fmt.Sprintf("%d changes", len(v.Events))
			})
		case model.CategorySpeech:
			section(&sb, c, t.Speech, func(v model.SpeechFrame) string {
				return fmt.Sprintf("%q", v.Text)
			})
		case model.CategoryAudioRatio:
			section(&sb, c, t.AudioRatio, func(v model.AudioRatioFrame) string {
				return fmt.Sprintf("music %.2f speech %.2f", v.Music, v.Speech)
			})
		}
	}
	return sb.String()
}

func section[T any](sb *strings.Builder, c model.Category, t model.Timeline[T], describe func(T) string) {
	if len(t) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n[%s]\n", c)
	for _, b := range model.SortedBuckets(t) {
		fmt.Fprintf(sb, "%s: %s\n", b, describe(t[b]))
	}
}

func labelCounts(counts map[string]int) string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s=%d", label, counts[label]))
	}
	return "(" + strings.Join(parts, " ") + ")"
}
