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
	"strings"
	"unicode"
)

const (
	// DefaultTopic is used when no keyword of the topic table matches.
	DefaultTopic = "general content"

	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// topicTable is evaluated in order; the first topic with a matching keyword wins.
var topicTable = []struct {
	topic    string
	keywords []string
}{
	{"food & cooking", []string{"recipe", "cook", "cooking", "food", "foodie", "baking", "pasta", "dinner", "meal"}},
	{"fitness", []string{"workout", "fitness", "gym", "exercise", "training", "yoga"}},
	{"beauty", []string{"makeup", "skincare", "beauty", "grwm", "get ready with me"}},
	{"fashion", []string{"fashion", "outfit", "ootd", "style", "haul"}},
	{"education", []string{"tutorial", "how to", "learn", "tips", "hack", "explained"}},
	{"comedy", []string{"funny", "comedy", "prank", "joke", "lol"}},
	{"dance", []string{"dance", "dancing", "choreography"}},
	{"music", []string{"music", "song", "singing", "cover"}},
	{"travel", []string{"travel", "vacation", "trip", "explore"}},
	{"pets & animals", []string{"pet", "pets", "dog", "puppy", "cat", "kitten"}},
	{"gaming", []string{"game", "gaming", "gamer", "gameplay"}},
	{"product review", []string{"review", "unboxing", "product", "tested"}},
}

var positiveWords = map[string]struct{}{
	"love": {}, "amazing": {}, "best": {}, "great": {}, "awesome": {}, "easy": {},
	"happy": {}, "perfect": {}, "beautiful": {}, "delicious": {}, "favorite": {},
	"fun": {}, "wow": {}, "excited": {}, "incredible": {}, "good": {},
}

var negativeWords = map[string]struct{}{
	"hate": {}, "worst": {}, "bad": {}, "terrible": {}, "awful": {}, "sad": {},
	"angry": {}, "fail": {}, "disappointed": {}, "ugly": {}, "boring": {},
	"gross": {}, "wrong": {}, "never": {},
}

// tokenize lower-cases text and splits it on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ClassifyTopic returns the first topic whose keyword appears in text.
func ClassifyTopic(text string) string {
	tokens := tokenize(text)
	words := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		words[t] = struct{}{}
	}
	phrase := " " + strings.Join(tokens, " ") + " "

	for _, entry := range topicTable {
		for _, kw := range entry.keywords {
			if strings.Contains(kw, " ") {
				if strings.Contains(phrase, " "+kw+" ") {
					return entry.topic
				}
				continue
			}
			if _, ok := words[kw]; ok {
				return entry.topic
			}
		}
	}
	return DefaultTopic
}

// ClassifySentiment compares positive and negative keyword counts. A strict
// majority wins and a tie is neutral.
func ClassifySentiment(text string) string {
	positive, negative := 0, 0
	for _, t := range tokenize(text) {
		if _, ok := positiveWords[t]; ok {
			positive++
		}
		if _, ok := negativeWords[t]; ok {
			negative++
		}
	}
	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
