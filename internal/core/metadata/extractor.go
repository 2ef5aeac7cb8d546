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

// Package metadata extracts the static platform metadata of a video and
// derives the metadata summary from it.
//
// Functions:
//   - Extract: reads a static metadata artifact into a model.StaticMetadata value.
//   - Summarize: builds the model.MetadataSummary from the static metadata, the
//     fused speech timeline and the raw cloud artifact.
package metadata

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// Extract reads the static metadata artifact. Fields are read one at a time
// so that a single badly typed field never hides the rest. The scraper's
// native key names are accepted as fallbacks for each field.
func Extract(a *model.Artifact) model.StaticMetadata {
	var m model.StaticMetadata
	if !a.Present() {
		return m
	}

	m.Caption = firstString(a, []string{"description"}, []string{"text"}, []string{"caption"})
	m.Hashtags = hashtags(a)
	m.Duration, _ = firstNumber(a, []string{"duration"}, []string{"videoMeta", "duration"})
	m.FPS, _ = firstNumber(a, []string{"fps"}, []string{"videoMeta", "fps"})
	m.CreateTime = createTime(a)

	m.Author = model.Author{
		Username:    firstString(a, []string{"author", "username"}, []string{"authorMeta", "name"}),
		DisplayName: firstString(a, []string{"author", "displayName"}, []string{"authorMeta", "nickName"}),
		Verified:    firstBool(a, []string{"author", "verified"}, []string{"authorMeta", "verified"}),
	}

	m.Views = firstInt(a, []string{"views"}, []string{"playCount"})
	m.Likes = firstInt(a, []string{"likes"}, []string{"diggCount"})
	m.Comments = firstInt(a, []string{"comments"}, []string{"commentCount"})
	m.Shares = firstInt(a, []string{"shares"}, []string{"shareCount"})
	m.Saves = firstInt(a, []string{"saves"}, []string{"collectCount"})

	if rate, ok := firstNumber(a, []string{"engagementRate"}); ok {
		m.EngagementRate = rate
	} else {
		m.EngagementRate = EngagementRate(m)
	}
	return m
}

// EngagementRate is interactions per view, as a percentage.
func EngagementRate(m model.StaticMetadata) float64 {
	if m.Views <= 0 {
		return 0
	}
	return float64(m.Likes+m.Comments+m.Shares) / float64(m.Views) * 100
}

// hashtag decodes either a bare string or a {"name": ...} object.
type hashtag string

func (h *hashtag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = hashtag(s)
		return nil
	}
	var obj struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Name == "" {
		obj.Name = obj.Title
	}
	*h = hashtag(obj.Name)
	return nil
}

func hashtags(a *model.Artifact) []string {
	items, _, err := model.DecodeList[hashtag](a, "hashtags")
	if err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, h := range items {
		out = append(out, string(h))
	}
	return out
}

func firstString(a *model.Artifact, paths ...[]string) string {
	for _, p := range paths {
		var s string
		if a.Decode(&s, p...) == nil && s != "" {
			return s
		}
	}
	return ""
}

func firstBool(a *model.Artifact, paths ...[]string) bool {
	for _, p := range paths {
		var b bool
		if a.Decode(&b, p...) == nil {
			return b
		}
	}
	return false
}

// firstNumber accepts JSON numbers and numeric strings.
func firstNumber(a *model.Artifact, paths ...[]string) (float64, bool) {
	for _, p := range paths {
		var raw json.RawMessage
		if a.Decode(&raw, p...) != nil {
			continue
		}
		if f, ok := parseNumber(raw); ok {
			return f, true
		}
	}
	return 0, false
}

func firstInt(a *model.Artifact, paths ...[]string) int64 {
	f, _ := firstNumber(a, paths...)
	return int64(f)
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f, true
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// createTime accepts unix seconds, an RFC 3339 string, or createTimeISO.
func createTime(a *model.Artifact) time.Time {
	if secs, ok := firstNumber(a, []string{"createTime"}); ok && secs > 0 {
		return time.Unix(int64(secs), 0).UTC()
	}
	for _, key := range []string{"createTime", "createTimeISO"} {
		var s string
		if a.Decode(&s, key) != nil {
			continue
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
