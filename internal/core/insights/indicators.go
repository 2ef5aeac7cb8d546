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

package insights

import (
	"sort"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// Engagement indicator tags.
const (
	TagEarlyTextHook        = "early_text_hook"
	TagHighGestureVariety   = "high_gesture_variety"
	TagFrequentSceneChanges = "frequent_scene_changes"
	TagStrongHumanPresence  = "strong_human_presence"
	TagDiverseVisuals       = "diverse_visuals"
	TagExpressivePresenter  = "expressive_presenter"
	TagSpeechDriven         = "speech_driven"
)

const (
	earlyHookMaxFrame   = 3
	busyBucketThreshold = 5
	humanPresenceFloor  = 0.5
	diverseObjectFloor  = 5
)

// Rule is one engagement indicator. Rules see the timelines and the scalar
// insights computed so far and never depend on each other.
type Rule struct {
	Tag   string
	Match func(t model.Timelines, s model.InsightSet) bool
}

// Rules lists every engagement indicator rule.
var Rules = []Rule{
	{TagEarlyTextHook, EarlyTextHook},
	{TagHighGestureVariety, func(t model.Timelines, _ model.InsightSet) bool {
		return len(t.Gesture) > busyBucketThreshold
	}},
	{TagFrequentSceneChanges, func(t model.Timelines, _ model.InsightSet) bool {
		return t.SceneChangeCount() > busyBucketThreshold
	}},
	{TagStrongHumanPresence, func(_ model.Timelines, s model.InsightSet) bool {
		return s.HumanPresenceRate >= humanPresenceFloor
	}},
	{TagDiverseVisuals, func(_ model.Timelines, s model.InsightSet) bool {
		return s.ObjectDiversity >= diverseObjectFloor
	}},
	{TagExpressivePresenter, func(t model.Timelines, _ model.InsightSet) bool {
		return len(t.Expression) > busyBucketThreshold
	}},
	{TagSpeechDriven, func(t model.Timelines, _ model.InsightSet) bool {
		return len(t.Speech) > busyBucketThreshold
	}},
}

// EarlyTextHook matches when any text overlay appears by the third frame.
func EarlyTextHook(t model.Timelines, _ model.InsightSet) bool {
	for _, frame := range t.TextOverlay {
		if frame.Frame <= earlyHookMaxFrame {
			return true
		}
	}
	return false
}

// EngagementIndicators evaluates every rule and returns the sorted tag set.
func EngagementIndicators(t model.Timelines, s model.InsightSet) []string {
	tags := []string{}
	for _, rule := range Rules {
		if rule.Match(t, s) {
			tags = append(tags, rule.Tag)
		}
	}
	sort.Strings(tags)
	return tags
}
