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
	"time"

	"github.com/google/uuid"
)

// Author is the account that published the video.
type Author struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Verified    bool   `json:"verified"`
}

// StaticMetadata is the platform metadata snapshot for a video. It is
// treated as immutable once extracted.
type StaticMetadata struct {
	Duration       float64   `json:"duration"`
	FPS            float64   `json:"fps"`
	Caption        string    `json:"caption"`
	Hashtags       []string  `json:"hashtags"`
	Author         Author    `json:"author"`
	CreateTime     time.Time `json:"create_time"`
	Views          int64     `json:"views"`
	Likes          int64     `json:"likes"`
	Comments       int64     `json:"comments"`
	Shares         int64     `json:"shares"`
	Saves          int64     `json:"saves"`
	EngagementRate float64   `json:"engagement_rate"`
}

// MetadataSummary is derived from StaticMetadata and the fused speech timeline.
// It is recomputed in full on every run.
type MetadataSummary struct {
	FormattedDuration string   `json:"formatted_duration"`
	Hashtags          []string `json:"hashtags"`
	HashtagText       string   `json:"hashtag_text"`
	CaptionTopic      string   `json:"caption_topic"`
	CaptionSentiment  string   `json:"caption_sentiment"`
	HasSpeech         bool     `json:"has_speech"`
	SpeechDuration    float64  `json:"speech_duration"`
	SpeechWordCount   int      `json:"speech_word_count"`
	WordsPerSecond    float64  `json:"words_per_second"`
	Views             int64    `json:"views"`
	Likes             int64    `json:"likes"`
	Comments          int64    `json:"comments"`
	Shares            int64    `json:"shares"`
	EngagementRate    float64  `json:"engagement_rate"`
}

// LabelCount pairs a label with an occurrence count.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// InsightSet holds the aggregate signals reduced from the fused timelines.
type InsightSet struct {
	ObjectDiversity      int          `json:"object_diversity"`
	PrimaryObjects       []LabelCount `json:"primary_objects"`
	CreativeDensity      float64      `json:"creative_density"`
	CreativeDensityPeaks []Bucket     `json:"creative_density_peaks"`
	GestureCount         int          `json:"gesture_count"`
	TextOverlayFrequency int          `json:"text_overlay_frequency"`
	HumanPresenceRate    float64      `json:"human_presence_rate"`
	AverageFaces         float64      `json:"average_faces"`
	DominantExpressions  []LabelCount `json:"dominant_expressions"`
	SceneComplexity      float64      `json:"scene_complexity"`
	EngagementIndicators []string     `json:"engagement_indicators"`
}

// FusedAnalysis is the root object persisted for every video.
type FusedAnalysis struct {
	Identity        VideoIdentity   `json:"identity"`
	RunID           string          `json:"run_id"`
	FusedAt         time.Time       `json:"fused_at"`
	FrameCount      int             `json:"frame_count"`
	Duration        float64         `json:"duration"`
	StaticMetadata  StaticMetadata  `json:"static_metadata"`
	MetadataSummary MetadataSummary `json:"metadata_summary"`
	Timelines       Timelines       `json:"timelines"`
	Insights        InsightSet      `json:"insights"`
	PipelineStatus  PipelineStatus  `json:"pipeline_status"`
}

// NewRunID derives a deterministic run identifier from the identity and the
// fusion timestamp, so identical inputs under the same clock yield identical output.
func NewRunID(identity VideoIdentity, fusedAt time.Time) string {
	name := identity.Key() + "@" + fusedAt.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}
