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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/h2non/filetype"
)

// Source names one upstream pipeline.
type Source string

const (
	SourceCloudVideoIntelligence Source = "cloud_video_intelligence"
	SourceObjectDetection        Source = "object_detection"
	SourceHumanAnalysis          Source = "human_analysis"
	SourceCreativeAnalysis       Source = "creative_analysis"
	SourceAudioAnalysis          Source = "audio_analysis"
	SourceSceneDetection         Source = "scene_detection"
	SourceStaticMetadata         Source = "static_metadata"
)

// AllSources lists every source in a stable order.
var AllSources = []Source{
	SourceCloudVideoIntelligence,
	SourceObjectDetection,
	SourceHumanAnalysis,
	SourceCreativeAnalysis,
	SourceAudioAnalysis,
	SourceSceneDetection,
	SourceStaticMetadata,
}

// Artifact is the raw output of a single pipeline. The shape of the body is
// owned by the producing pipeline, so fields are only decoded on demand. A nil
// *Artifact means the pipeline output was not available.
type Artifact struct {
	Source Source
	body   map[string]json.RawMessage
}

// ParseArtifact validates that data is a JSON object and wraps it.
func ParseArtifact(source Source, data []byte) (*Artifact, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformedArtifact, source)
	}
	if kind, _ := filetype.Match(trimmed); kind != filetype.Unknown {
		return nil, fmt.Errorf("%w: %s holds %s content", ErrMalformedArtifact, source, kind.MIME.Value)
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedArtifact, source, err)
	}
	if body == nil {
		return nil, fmt.Errorf("%w: %s is not an object", ErrMalformedArtifact, source)
	}
	return &Artifact{Source: source, body: body}, nil
}

// MustParseArtifact is ParseArtifact for fixtures; it panics on error.
func MustParseArtifact(source Source, data string) *Artifact {
	a, err := ParseArtifact(source, []byte(data))
	if err != nil {
		panic(err)
	}
	return a
}

// Present reports whether the artifact is available.
func (a *Artifact) Present() bool {
	return a != nil
}

// Has reports whether the nested path exists and is not null.
func (a *Artifact) Has(path ...string) bool {
	_, err := a.lookup(path)
	return err == nil
}

// Decode navigates the nested object keys in path and decodes the value found
// there into out.
func (a *Artifact) Decode(out any, path ...string) error {
	raw, err := a.lookup(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s.%s: %v", ErrFieldMalformed, a.Source, strings.Join(path, "."), err)
	}
	return nil
}

func (a *Artifact) lookup(path []string) (json.RawMessage, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: artifact absent", ErrFieldMissing)
	}
	current := a.body
	for i, key := range path {
		raw, ok := current[key]
		if !ok || isNull(raw) {
			return nil, fmt.Errorf("%w: %s.%s", ErrFieldMissing, a.Source, strings.Join(path[:i+1], "."))
		}
		if i == len(path)-1 {
			return raw, nil
		}
		var next map[string]json.RawMessage
		if err := json.Unmarshal(raw, &next); err != nil {
			return nil, fmt.Errorf("%w: %s.%s is not an object", ErrFieldMalformed, a.Source, strings.Join(path[:i+1], "."))
		}
		current = next
	}
	return nil, fmt.Errorf("%w: empty path", ErrFieldMissing)
}

// DecodeList decodes the array at path element by element. A value that is not
// an array is ErrFieldMalformed; individual elements that fail to decode are
// dropped and counted in skipped.
func DecodeList[T any](a *Artifact, path ...string) (items []T, skipped int, err error) {
	var raws []json.RawMessage
	if err = a.Decode(&raws, path...); err != nil {
		return nil, 0, err
	}
	items = make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if json.Unmarshal(raw, &item) != nil {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ArtifactSet is the set of pipeline outputs available for one fusion run.
type ArtifactSet map[Source]*Artifact

// Get returns the artifact for source, or nil when absent.
func (s ArtifactSet) Get(source Source) *Artifact {
	if s == nil {
		return nil
	}
	return s[source]
}

// Put stores a non-nil artifact under its own source.
func (s ArtifactSet) Put(a *Artifact) ArtifactSet {
	if a != nil {
		s[a.Source] = a
	}
	return s
}

// Status reports the presence of every known source.
func (s ArtifactSet) Status() PipelineStatus {
	status := make(PipelineStatus, len(AllSources))
	for _, source := range AllSources {
		status[source] = s.Get(source).Present()
	}
	return status
}

// PipelineStatus records which pipeline outputs were available at fusion time.
type PipelineStatus map[Source]bool

// Available returns the number of present sources.
func (p PipelineStatus) Available() int {
	n := 0
	for _, ok := range p {
		if ok {
			n++
		}
	}
	return n
}
