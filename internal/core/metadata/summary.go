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

package metadata

import (
	"fmt"
	"math"
	"strings"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/timeline"
)

// Summarize derives the metadata summary. Every field is computed from its
// inputs on each call; nothing is carried over from a previous run.
func Summarize(static model.StaticMetadata, speech model.Timeline[model.SpeechFrame], cloud *model.Artifact) model.MetadataSummary {
	tags := FlattenHashtags(static.Hashtags)
	text := static.Caption + " " + strings.Join(tags, " ")

	summary := model.MetadataSummary{
		FormattedDuration: FormatDuration(static.Duration),
		Hashtags:          tags,
		HashtagText:       hashtagText(tags),
		CaptionTopic:      ClassifyTopic(text),
		CaptionSentiment:  ClassifySentiment(static.Caption),
		HasSpeech:         len(speech) > 0,
		SpeechDuration:    SpeechDuration(timeline.Transcriptions(cloud)),
		Views:             static.Views,
		Likes:             static.Likes,
		Comments:          static.Comments,
		Shares:            static.Shares,
		EngagementRate:    static.EngagementRate,
	}
	for _, frame := range speech {
		summary.SpeechWordCount += frame.WordCount
	}
	if summary.SpeechDuration > 0 {
		summary.WordsPerSecond = float64(summary.SpeechWordCount) / summary.SpeechDuration
	}
	return summary
}

// FormatDuration renders seconds as M:SS, or H:MM:SS from one hour up.
func FormatDuration(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "0:00"
	}
	total := int(math.Round(seconds))
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FlattenHashtags strips the leading '#' and drops empty and repeated tags,
// keeping first-seen order.
func FlattenHashtags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(tag), "#"))
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func hashtagText(tags []string) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = "#" + t
	}
	return strings.Join(parts, " ")
}

// SpeechDuration is the span from the first word start to the last word end
// across every transcription. Without word timestamps it is 0, even when
// utterance text exists.
func SpeechDuration(transcriptions []model.SpeechTranscription) float64 {
	first, last := math.Inf(1), math.Inf(-1)
	for _, tr := range transcriptions {
		for _, alt := range tr.Alternatives {
			for _, w := range alt.Words {
				if !w.StartTime.Valid {
					continue
				}
				start := w.StartTime.Seconds()
				end := start
				if w.EndTime.Valid {
					end = w.EndTime.Seconds()
				}
				first = math.Min(first, start)
				last = math.Max(last, end)
			}
		}
	}
	if math.IsInf(first, 1) || last < first {
		return 0
	}
	return last - first
}
