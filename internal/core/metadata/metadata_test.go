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

package metadata_test

import (
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/metadata"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func TestExtractSpecShape(t *testing.T) {
	a := model.MustParseArtifact(model.SourceStaticMetadata, `{
		"description": "Easy pasta recipe you will love",
		"hashtags": [{"name": "food"}, {"name": "recipe"}],
		"duration": 42,
		"createTime": 1728615848,
		"author": {"username": "chef", "displayName": "The Chef", "verified": true},
		"views": 1000, "likes": 100, "comments": 10, "shares": 5,
		"engagementRate": 11.5
	}`)

	m := metadata.Extract(a)
	assert.Equal(t, "Easy pasta recipe you will love", m.Caption)
	assert.Equal(t, []string{"food", "recipe"}, m.Hashtags)
	assert.Equal(t, 42.0, m.Duration)
	assert.Equal(t, time.Unix(1728615848, 0).UTC(), m.CreateTime)
	assert.Equal(t, model.Author{Username: "chef", DisplayName: "The Chef", Verified: true}, m.Author)
	assert.Equal(t, int64(1000), m.Views)
	assert.Equal(t, 11.5, m.EngagementRate)
}

func TestExtractScraperFallbacks(t *testing.T) {
	a := model.MustParseArtifact(model.SourceStaticMetadata, `{
		"text": "gym day",
		"hashtags": ["fitness", {"title": "gym"}],
		"videoMeta": {"duration": "15"},
		"createTimeISO": "2024-10-11T03:04:08Z",
		"authorMeta": {"name": "lifter", "nickName": "Lifter", "verified": false},
		"playCount": 200, "diggCount": 20, "commentCount": 10, "shareCount": 10, "collectCount": 3,
		"views": "not-a-number"
	}`)

	m := metadata.Extract(a)
	assert.Equal(t, "gym day", m.Caption)
	assert.Equal(t, []string{"fitness", "gym"}, m.Hashtags)
	assert.Equal(t, 15.0, m.Duration)
	assert.Equal(t, time.Date(2024, 10, 11, 3, 4, 8, 0, time.UTC), m.CreateTime)
	assert.Equal(t, "lifter", m.Author.Username)
	assert.Equal(t, int64(200), m.Views)
	assert.Equal(t, int64(3), m.Saves)
	// (20+10+10)/200 as a percentage.
	assert.InDelta(t, 20.0, m.EngagementRate, 1e-9)
}

func TestExtractAbsent(t *testing.T) {
	assert.Equal(t, model.StaticMetadata{}, metadata.Extract(nil))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00", metadata.FormatDuration(0))
	assert.Equal(t, "0:00", metadata.FormatDuration(-3))
	assert.Equal(t, "0:09", metadata.FormatDuration(9.4))
	assert.Equal(t, "1:15", metadata.FormatDuration(75))
	assert.Equal(t, "1:01:01", metadata.FormatDuration(3661))
}

func TestFlattenHashtags(t *testing.T) {
	assert.Equal(t, []string{"food", "Recipe"}, metadata.FlattenHashtags([]string{"#food", " Recipe", "", "#", "FOOD"}))
	assert.Equal(t, []string{}, metadata.FlattenHashtags(nil))
}

func TestClassifyTopicFirstMatchWins(t *testing.T) {
	// Both food and fitness keywords appear; food is earlier in the table.
	assert.Equal(t, "food & cooking", metadata.ClassifyTopic("post workout meal prep"))
	assert.Equal(t, "education", metadata.ClassifyTopic("How to fold a shirt"))
	assert.Equal(t, "pets & animals", metadata.ClassifyTopic("my cat says hi"))
	// Substrings do not match: "education" contains "cat".
	assert.Equal(t, metadata.DefaultTopic, metadata.ClassifyTopic("education matters"))
	assert.Equal(t, metadata.DefaultTopic, metadata.ClassifyTopic(""))
}

func TestClassifySentiment(t *testing.T) {
	assert.Equal(t, metadata.SentimentPositive, metadata.ClassifySentiment("I love this, best day"))
	assert.Equal(t, metadata.SentimentNegative, metadata.ClassifySentiment("worst and most boring day"))
	assert.Equal(t, metadata.SentimentNeutral, metadata.ClassifySentiment("love it or hate it"))
	assert.Equal(t, metadata.SentimentNeutral, metadata.ClassifySentiment("a chair"))
}

func TestSummarizeSpeechDuration(t *testing.T) {
	cloud := model.MustParseArtifact(model.SourceCloudVideoIntelligence, `{
		"speechTranscriptions": [
			{"alternatives": [{"transcript": "hello there", "words": [
				{"word": "hello", "startTime": "1.0s", "endTime": "1.4s"},
				{"word": "there", "startTime": "1.5s", "endTime": "2.0s"}]}]},
			{"alternatives": [{"transcript": "bye", "words": [
				{"word": "bye", "startTime": "6.5s", "endTime": "7.0s"}]}]}
		]
	}`)
	speech := model.Timeline[model.SpeechFrame]{
		"0-1s": {Frame: 1, Text: "hello there", WordCount: 2},
		"6-7s": {Frame: 7, Text: "bye", WordCount: 1},
	}
	static := model.StaticMetadata{Duration: 75, Caption: "Easy recipe, love it", Hashtags: []string{"#food"}}

	s := metadata.Summarize(static, speech, cloud)
	assert.Equal(t, "1:15", s.FormattedDuration)
	assert.Equal(t, "food & cooking", s.CaptionTopic)
	assert.Equal(t, metadata.SentimentPositive, s.CaptionSentiment)
	assert.Equal(t, "#food", s.HashtagText)
	assert.True(t, s.HasSpeech)
	assert.InDelta(t, 6.0, s.SpeechDuration, 1e-9)
	assert.Equal(t, 3, s.SpeechWordCount)
	assert.InDelta(t, 0.5, s.WordsPerSecond, 1e-9)
}

func TestSummarizeUtteranceOnlyHasZeroDuration(t *testing.T) {
	cloud := model.MustParseArtifact(model.SourceCloudVideoIntelligence, `{
		"speechTranscriptions": [{"alternatives": [{"transcript": "no timing here"}]}]
	}`)
	speech := model.Timeline[model.SpeechFrame]{"0-1s": {Frame: 1, Text: "no timing here", WordCount: 3}}

	s := metadata.Summarize(model.StaticMetadata{}, speech, cloud)
	assert.True(t, s.HasSpeech)
	assert.Equal(t, 0.0, s.SpeechDuration)
	assert.Equal(t, 0.0, s.WordsPerSecond)
	assert.Equal(t, metadata.DefaultTopic, s.CaptionTopic)
}
