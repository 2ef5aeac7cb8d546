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


// Package test provides utility functions and sample data to support the
// application's test suite. It loads the test configuration and supplies a
// consistent set of pipeline artifacts for a ten second video.
package test

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-media-fusion/internal/cloud"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/stretchr/testify/require"
)

// StateManager caches the application configuration during test runs.
type StateManager struct {
	once   sync.Once
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// ConfigDir returns the absolute path of the repository's configs directory,
// so tests load the same files whatever package directory they run from.
func ConfigDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "configs")
}

// SetupOS points the configuration loader at the test configuration files.
func SetupOS() (err error) {
	if err = os.Setenv(cloud.EnvConfigFilePrefix, ConfigDir()); err != nil {
		return err
	}
	return os.Setenv(cloud.EnvConfigRuntime, "test")
}

// GetConfig loads the test configuration once and returns the cached copy.
func GetConfig() *cloud.Config {
	state.once.Do(func() {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test config: %v\n", err)
		}
		state.config = config
	})
	return state.config
}

// TestIdentity is the video used by the fixtures.
var TestIdentity = model.NewVideoIdentity("7301234567890", "acct42")

// GetTestPipelineCompleteMessageText returns a pipeline completion message for
// TestIdentity.
func GetTestPipelineCompleteMessageText() string {
	return `{"video_id": "7301234567890", "account_id": "acct42", "pipeline": "object_detection"}`
}

// ArtifactBodies returns the raw artifact of every source for a ten second,
// ten frame video.
func ArtifactBodies() map[model.Source]string {
	return map[model.Source]string{
		model.SourceCloudVideoIntelligence: `{
  "duration": "10s",
  "shots": [
    {"startTime": 0, "endTime": 3},
    {"startTime": "3s", "endTime": "6.5s"},
    {"startTimeOffset": {"seconds": "6", "nanos": 500000000}, "endTimeOffset": "10s"}
  ],
  "speechTranscriptions": [{"alternatives": [{"transcript": "wait for it this is amazing", "confidence": 0.92, "words": [
    {"word": "wait", "startTime": "0.2s", "endTime": "0.5s", "confidence": 0.9},
    {"word": "for", "startTime": "0.5s", "endTime": "0.7s", "confidence": 0.9},
    {"word": "it", "startTime": "0.7s", "endTime": "0.9s", "confidence": 0.9},
    {"word": "this", "startTime": {"seconds": 4, "nanos": 100000000}, "endTime": "4.3s", "confidence": 0.8},
    {"word": "is", "startTime": "4.3s", "endTime": "4.4s", "confidence": 0.8},
    {"word": "amazing", "startTime": "4.4s", "endTime": "5.1s", "confidence": 0.95}
  ]}]}]
}`,
		model.SourceObjectDetection: `{
  "frame_summaries": [
    {"frame_number": 1, "object_counts": {"person": 1, "cup": 1}, "total_objects": 2},
    {"frame_number": 4, "object_counts": {"person": 1}, "total_objects": 1},
    {"frame_number": 8, "object_counts": {"person": 2, "plate": 1}, "total_objects": 3}
  ],
  "summary": {"total_frames": 10, "unique_object_types": 3}
}`,
		model.SourceHumanAnalysis: `{
  "timeline": {
    "gestures": [{"frame": 1, "gesture": "wave"}, {"frame": 5, "gesture": "point"}, {"frame": 9, "gesture": "thumbs_up"}],
    "expressions": [{"frame": 2, "expression": "happy", "confidence": 0.9}, {"frame": 7, "expression": "surprised", "confidence": 0.7}],
    "poses": [{"frame": 1, "pose": "upper_body"}, {"frame": 6, "pose": "full_body"}]
  },
  "insights": {"human_presence": 0.8, "average_faces": 1.2},
  "summary": {"total_frames": 10}
}`,
		model.SourceCreativeAnalysis: `{
  "frame_details": [
    {"frame": "frame_0001", "text_elements": [{"text": "WAIT FOR IT", "category": "hook", "confidence": 0.9}],
     "creative_elements": [{"type": "sticker", "description": "fire emoji", "confidence": 0.8}]},
    {"frame": "frame_0009", "text_elements": [{"text": "Follow for more", "category": "cta", "confidence": 0.85}]}
  ],
  "creative_density": 0.4,
  "summary": {"total_frames": 10}
}`,
		model.SourceAudioAnalysis: `{
  "speech_segments": [{"start_time": 0.2, "duration": 0.7, "text": "wait for it", "confidence": 0.9}],
  "audio_levels": [{"music": 0.3, "speech": 0.7, "ratio": 0.43}, {"time": 5, "music": 0.6, "speech": 0.4, "ratio": 1.5}]
}`,
		model.SourceSceneDetection: `{"scenes": [{"start_time": 0, "end_time": 3.1, "duration": 3.1}, {"start_time": 3.1, "end_time": 10, "duration": 6.9}]}`,
		model.SourceStaticMetadata: `{
  "description": "Best pasta recipe ever, so easy and delicious #food #recipe",
  "hashtags": [{"name": "food"}, {"name": "recipe"}],
  "duration": 10,
  "createTime": 1700000000,
  "author": {"username": "chef", "displayName": "Chef", "verified": true},
  "views": 1000, "likes": 100, "comments": 10, "shares": 5,
  "engagementRate": 11.5
}`,
	}
}

// GetTestArtifacts returns the parsed fixtures for the given sources, or for
// every source when none is named.
func GetTestArtifacts(t *testing.T, sources ...model.Source) model.ArtifactSet {
	t.Helper()
	if len(sources) == 0 {
		sources = model.AllSources
	}
	bodies := ArtifactBodies()
	set := model.ArtifactSet{}
	for _, source := range sources {
		a, err := model.ParseArtifact(source, []byte(bodies[source]))
		require.NoError(t, err)
		set.Put(a)
	}
	return set
}

// WriteTestArtifacts writes the fixtures for the given sources below root
// using templates, the way the pipelines lay them out.
func WriteTestArtifacts(t *testing.T, root string, templates map[model.Source]string, id model.VideoIdentity, sources ...model.Source) {
	t.Helper()
	if len(sources) == 0 {
		sources = model.AllSources
	}
	bodies := ArtifactBodies()
	for _, source := range sources {
		WriteRawArtifact(t, root, templates, id, source, bodies[source])
	}
}

// WriteRawArtifact writes body as the artifact of source.
func WriteRawArtifact(t *testing.T, root string, templates map[model.Source]string, id model.VideoIdentity, source model.Source, body string) {
	t.Helper()
	rel := filepath.FromSlash(strings.ReplaceAll(templates[source], "{id}", id.Key()))
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}
