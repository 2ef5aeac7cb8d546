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
	"sort"
	"strings"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// speechEvent is one timed piece of speech before bucket grouping.
type speechEvent struct {
	text       string
	start      float64
	confidence float64
	words      int
}

// BuildSpeech builds the speech timeline from the first tier that yields at
// least one event:
//  1. cloud word timestamps, one event per word
//  2. cloud utterance transcripts without word timing, as one event in the first bucket
//  3. the audio pipeline's speech segments
func BuildSpeech(in Input) model.Timeline[model.SpeechFrame] {
	transcriptions := Transcriptions(in.Artifacts.Get(model.SourceCloudVideoIntelligence))

	if words := timedWords(transcriptions); len(words) > 0 {
		return groupSpeech(in.Normalizer, words, model.SpeechTierWords)
	}
	if out := utteranceSpeech(transcriptions); len(out) > 0 {
		return out
	}
	return groupSpeech(in.Normalizer, segmentSpeech(in.Artifacts.Get(model.SourceAudioAnalysis)), model.SpeechTierSegments)
}

// Transcriptions decodes the cloud speech transcriptions, accepting either
// the camelCase or snake_case field name.
func Transcriptions(cloud *model.Artifact) []model.SpeechTranscription {
	field := "speechTranscriptions"
	if !cloud.Has(field) && cloud.Has("speech_transcriptions") {
		field = "speech_transcriptions"
	}
	items, _ := decodeList[model.SpeechTranscription](model.CategorySpeech, cloud, field)
	return items
}

func timedWords(transcriptions []model.SpeechTranscription) []speechEvent {
	var events []speechEvent
	for _, tr := range transcriptions {
		if len(tr.Alternatives) == 0 {
			continue
		}
		for _, w := range tr.Alternatives[0].Words {
			if !w.StartTime.Valid || strings.TrimSpace(w.Word) == "" {
				continue
			}
			events = append(events, speechEvent{
				text:       w.Word,
				start:      w.StartTime.Seconds(),
				confidence: w.Confidence,
				words:      1,
			})
		}
	}
	return events
}

func utteranceSpeech(transcriptions []model.SpeechTranscription) model.Timeline[model.SpeechFrame] {
	var parts []string
	var confidence float64
	for _, tr := range transcriptions {
		if len(tr.Alternatives) == 0 {
			continue
		}
		best := tr.Alternatives[0]
		if text := strings.TrimSpace(best.Transcript); text != "" {
			parts = append(parts, text)
			confidence += best.Confidence
		}
	}
	out := model.Timeline[model.SpeechFrame]{}
	if len(parts) == 0 {
		return out
	}
	text := strings.Join(parts, " ")
	out[model.BucketFor(1)] = model.SpeechFrame{
		Frame:      1,
		Text:       text,
		WordCount:  len(strings.Fields(text)),
		Confidence: confidence / float64(len(parts)),
		Tier:       model.SpeechTierUtterances,
	}
	return out
}

func segmentSpeech(audio *model.Artifact) []speechEvent {
	segments, ok := decodeList[model.SpeechSegment](model.CategorySpeech, audio, "speech_segments")
	if !ok {
		return nil
	}
	var events []speechEvent
	for _, s := range segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		events = append(events, speechEvent{
			text:       text,
			start:      s.StartTime.Seconds(),
			confidence: s.Confidence,
			words:      len(strings.Fields(text)),
		})
	}
	return events
}

// groupSpeech joins the events of each bucket in time order.
func groupSpeech(n Normalizer, events []speechEvent, tier model.SpeechTier) model.Timeline[model.SpeechFrame] {
	out := model.Timeline[model.SpeechFrame]{}
	sort.SliceStable(events, func(i, j int) bool { return events[i].start < events[j].start })

	grouped := map[model.Bucket][]speechEvent{}
	frames := map[model.Bucket]int{}
	for _, e := range events {
		bucket, frame := n.Bucket(model.Seconds(e.start))
		grouped[bucket] = append(grouped[bucket], e)
		frames[bucket] = frame
	}
	for bucket, group := range grouped {
		texts := make([]string, 0, len(group))
		var confidence float64
		words := 0
		for _, e := range group {
			texts = append(texts, e.text)
			confidence += e.confidence
			words += e.words
		}
		out[bucket] = model.SpeechFrame{
			Frame:      frames[bucket],
			Text:       strings.Join(texts, " "),
			WordCount:  words,
			Confidence: confidence / float64(len(group)),
			StartTime:  group[0].start,
			Tier:       tier,
		}
	}
	return out
}
