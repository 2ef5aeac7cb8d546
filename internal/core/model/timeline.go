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

package model

import (
	"fmt"
	"sort"
)

// Bucket is a half-open one second interval, rendered as "{i-1}-{i}s".
type Bucket string

// BucketFor renders the bucket ending at index.
func BucketFor(index int) Bucket {
	return Bucket(fmt.Sprintf("%d-%ds", index-1, index))
}

// Index returns the end index of the bucket, or 0 if it is not well formed.
func (b Bucket) Index() int {
	var start, end int
	if _, err := fmt.Sscanf(string(b), "%d-%ds", &start, &end); err != nil {
		return 0
	}
	return end
}

// Category names one fused timeline.
type Category string

const (
	CategoryObjectPresence Category = "object_presence"
	CategoryTextOverlay    Category = "text_overlay"
	CategorySticker        Category = "sticker"
	CategoryGesture        Category = "gesture"
	CategoryExpression     Category = "expression"
	CategoryCameraDistance Category = "camera_distance"
	CategorySceneChange    Category = "scene_change"
	CategorySpeech         Category = "speech"
	CategoryAudioRatio     Category = "audio_ratio"
)

// AllCategories lists the timeline categories in output order.
var AllCategories = []Category{
	CategoryObjectPresence,
	CategoryTextOverlay,
	CategorySticker,
	CategoryGesture,
	CategoryExpression,
	CategoryCameraDistance,
	CategorySceneChange,
	CategorySpeech,
	CategoryAudioRatio,
}

// Timeline is a sparse bucket to payload map.
type Timeline[T any] map[Bucket]T

// SortedBuckets returns the buckets of a timeline ordered by index.
func SortedBuckets[T any](t Timeline[T]) []Bucket {
	out := make([]Bucket, 0, len(t))
	for b := range t {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

// ObjectPresence lists the objects detected within a bucket.
type ObjectPresence struct {
	Frame        int            `json:"frame"`
	Objects      map[string]int `json:"objects"`
	TotalObjects int            `json:"total_objects"`
}

// TextOverlay lists the on-screen text detected within a bucket.
type TextOverlay struct {
	Frame int           `json:"frame"`
	Texts []TextElement `json:"texts"`
}

// Sticker is an overlay-typed creative element.
type Sticker struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// StickerOverlay lists the stickers detected within a bucket.
type StickerOverlay struct {
	Frame    int       `json:"frame"`
	Stickers []Sticker `json:"stickers"`
}

// GestureFrame lists the gestures detected within a bucket.
type GestureFrame struct {
	Frame    int      `json:"frame"`
	Gestures []string `json:"gestures"`
}

// ExpressionFrame is the strongest expression detected within a bucket.
type ExpressionFrame struct {
	Frame      int     `json:"frame"`
	Expression string  `json:"expression"`
	Confidence float64 `json:"confidence"`
}

// CameraFraming is the shot distance inferred for a bucket.
type CameraFraming struct {
	Frame    int    `json:"frame"`
	Distance string `json:"distance"`
	Pose     string `json:"pose,omitempty"`
}

// SceneChangeEvent is a single scene change reported by one source.
type SceneChangeEvent struct {
	Source Source  `json:"source"`
	Time   float64 `json:"time"`
}

// SceneChangeFrame lists the scene changes within a bucket. Events from
// different sources are not deduplicated.
type SceneChangeFrame struct {
	Frame  int                `json:"frame"`
	Events []SceneChangeEvent `json:"events"`
}

// SpeechTier identifies which speech source produced a speech bucket.
type SpeechTier string

const (
	SpeechTierWords      SpeechTier = "word_timestamps"
	SpeechTierUtterances SpeechTier = "utterances"
	SpeechTierSegments   SpeechTier = "speech_segments"
)

// SpeechFrame is the speech transcribed within a bucket.
type SpeechFrame struct {
	Frame      int        `json:"frame"`
	Text       string     `json:"text"`
	WordCount  int        `json:"word_count"`
	Confidence float64    `json:"confidence"`
	StartTime  float64    `json:"start_time"`
	Tier       SpeechTier `json:"tier"`
}

// AudioRatioFrame is the music/speech balance for a bucket.
type AudioRatioFrame struct {
	Frame  int     `json:"frame"`
	Music  float64 `json:"music"`
	Speech float64 `json:"speech"`
	Ratio  float64 `json:"ratio"`
}

// Timelines holds every fused category timeline.
type Timelines struct {
	ObjectPresence Timeline[ObjectPresence]   `json:"object_presence"`
	TextOverlay    Timeline[TextOverlay]      `json:"text_overlay"`
	Sticker        Timeline[StickerOverlay]   `json:"sticker"`
	Gesture        Timeline[GestureFrame]     `json:"gesture"`
	Expression     Timeline[ExpressionFrame]  `json:"expression"`
	CameraDistance Timeline[CameraFraming]    `json:"camera_distance"`
	SceneChange    Timeline[SceneChangeFrame] `json:"scene_change"`
	Speech         Timeline[SpeechFrame]      `json:"speech"`
	AudioRatio     Timeline[AudioRatioFrame]  `json:"audio_ratio"`
}

// NewTimelines returns a Timelines value with every map allocated.
func NewTimelines() Timelines {
	return Timelines{
		ObjectPresence: Timeline[ObjectPresence]{},
		TextOverlay:    Timeline[TextOverlay]{},
		Sticker:        Timeline[StickerOverlay]{},
		Gesture:        Timeline[GestureFrame]{},
		Expression:     Timeline[ExpressionFrame]{},
		CameraDistance: Timeline[CameraFraming]{},
		SceneChange:    Timeline[SceneChangeFrame]{},
		Speech:         Timeline[SpeechFrame]{},
		AudioRatio:     Timeline[AudioRatioFrame]{},
	}
}

// Len returns the number of buckets in the category timeline.
func (t Timelines) Len(c Category) int {
	switch c {
	case CategoryObjectPresence:
		return len(t.ObjectPresence)
	case CategoryTextOverlay:
		return len(t.TextOverlay)
	case CategorySticker:
		return len(t.Sticker)
	case CategoryGesture:
		return len(t.Gesture)
	case CategoryExpression:
		return len(t.Expression)
	case CategoryCameraDistance:
		return len(t.CameraDistance)
	case CategorySceneChange:
		return len(t.SceneChange)
	case CategorySpeech:
		return len(t.Speech)
	case CategoryAudioRatio:
		return len(t.AudioRatio)
	}
	return 0
}

// Empty reports whether every category timeline is empty.
func (t Timelines) Empty() bool {
	for _, c := range AllCategories {
		if t.Len(c) > 0 {
			return false
		}
	}
	return true
}

// SceneChangeCount is the number of scene change events across all buckets.
func (t Timelines) SceneChangeCount() int {
	n := 0
	for _, frame := range t.SceneChange {
		n += len(frame.Events)
	}
	return n
}

// CopyCategory replaces category c of t with the one of src. A nil source
// timeline leaves t unchanged.
func (t *Timelines) CopyCategory(c Category, src Timelines) {
	switch c {
	case CategoryObjectPresence:
		if src.ObjectPresence != nil {
			t.ObjectPresence = src.ObjectPresence
		}
	case CategoryTextOverlay:
		if src.TextOverlay != nil {
			t.TextOverlay = src.TextOverlay
		}
	case CategorySticker:
		if src.Sticker != nil {
			t.Sticker = src.Sticker
		}
	case CategoryGesture:
		if src.Gesture != nil {
			t.Gesture = src.Gesture
		}
	case CategoryExpression:
		if src.Expression != nil {
			t.Expression = src.Expression
		}
	case CategoryCameraDistance:
		if src.CameraDistance != nil {
			t.CameraDistance = src.CameraDistance
		}
	case CategorySceneChange:
		if src.SceneChange != nil {
			t.SceneChange = src.SceneChange
		}
	case CategorySpeech:
		if src.Speech != nil {
			t.Speech = src.Speech
		}
	case CategoryAudioRatio:
		if src.AudioRatio != nil {
			t.AudioRatio = src.AudioRatio
		}
	}
}
