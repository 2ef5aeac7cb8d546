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

// Package model_test contains unit tests for the data models defined in the
// model package: identity keys, time decoding and artifact access.
package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoIdentityKey(t *testing.T) {
	assert.Equal(t, "7123", model.NewVideoIdentity("7123", "").Key())
	assert.Equal(t, "creator_7123", model.NewVideoIdentity("7123", "creator").Key())
}

func TestVideoIdentityValidate(t *testing.T) {
	assert.NoError(t, model.NewVideoIdentity("abc-123_x.y", "acct").Validate())

	for _, id := range []model.VideoIdentity{
		{},
		{VideoID: "../etc"},
		{VideoID: ".."},
		{VideoID: "a/b"},
		{VideoID: "ok", AccountID: "bad/acct"},
	} {
		err := id.Validate()
		assert.True(t, errors.Is(err, model.ErrInvalidIdentity), "expected invalid identity for %+v", id)
	}
}

func TestTimeOffsetDecoding(t *testing.T) {
	cases := map[string]float64{
		`1.25`:                             1.25,
		`"2.5s"`:                           2.5,
		`"3"`:                              3,
		`{"seconds": 4, "nanos": 500000000}`: 4.5,
		`{"seconds": "5", "nanos": 250000000}`: 5.25,
		`{"nanos": 100000000}`:             0.1,
	}
	for input, expected := range cases {
		var o model.TimeOffset
		require.NoError(t, json.Unmarshal([]byte(input), &o), input)
		assert.True(t, o.Valid, input)
		assert.InDelta(t, expected, o.Seconds(), 1e-9, input)
	}

	var absent model.TimeOffset
	require.NoError(t, json.Unmarshal([]byte(`null`), &absent))
	assert.False(t, absent.Valid)

	var bad model.TimeOffset
	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &bad))
}

func TestOffsetKindFlattens(t *testing.T) {
	v := model.Offset(2, 750000000)
	assert.Equal(t, model.KindOffset, v.Kind())
	assert.InDelta(t, 2.75, v.Flatten(), 1e-9)
	assert.Equal(t, 7, model.Frame(7).FrameIndex())
	assert.Equal(t, 0, model.Seconds(7).FrameIndex())
}

func TestFrameRef(t *testing.T) {
	var refs []model.FrameRef
	require.NoError(t, json.Unmarshal([]byte(`[3, "frame_0042", "frame_0007.jpg"]`), &refs))
	assert.Equal(t, []model.FrameRef{3, 42, 7}, refs)

	var bad model.FrameRef
	assert.Error(t, json.Unmarshal([]byte(`"frame_x"`), &bad))
}

func TestBucket(t *testing.T) {
	assert.Equal(t, model.Bucket("0-1s"), model.BucketFor(1))
	assert.Equal(t, 12, model.Bucket("11-12s").Index())
	assert.Equal(t, 0, model.Bucket("garbage").Index())

	tl := model.Timeline[int]{"10-11s": 1, "2-3s": 2, "0-1s": 3}
	assert.Equal(t, []model.Bucket{"0-1s", "2-3s", "10-11s"}, model.SortedBuckets(tl))
}

func TestParseArtifact(t *testing.T) {
	a, err := model.ParseArtifact(model.SourceObjectDetection, []byte(`{"summary": {"total_frames": 30}}`))
	require.NoError(t, err)
	assert.True(t, a.Present())

	var summary model.DetectorSummary
	require.NoError(t, a.Decode(&summary, "summary"))
	assert.Equal(t, 30, summary.TotalFrames)

	err = a.Decode(&summary, "missing")
	assert.True(t, errors.Is(err, model.ErrFieldMissing))

	for _, data := range []string{``, `null`, `[1,2]`, `{"truncated": [`} {
		_, err := model.ParseArtifact(model.SourceObjectDetection, []byte(data))
		assert.True(t, errors.Is(err, model.ErrMalformedArtifact), "input %q", data)
	}

	// A PNG header in place of JSON is rejected before decoding.
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	_, err = model.ParseArtifact(model.SourceObjectDetection, png)
	assert.True(t, errors.Is(err, model.ErrMalformedArtifact))
}

func TestDecodeList(t *testing.T) {
	a := model.MustParseArtifact(model.SourceHumanAnalysis, `{
		"timeline": {
			"gestures": [{"frame": 1, "gesture": "wave"}, {"frame": {}, "gesture": "bad"}, {"frame": 4, "gesture": "point"}],
			"poses": "not-a-list"
		}
	}`)

	items, skipped, err := model.DecodeList[model.GestureEvent](a, "timeline", "gestures")
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Len(t, items, 2)

	_, _, err = model.DecodeList[model.PoseEvent](a, "timeline", "poses")
	assert.True(t, errors.Is(err, model.ErrFieldMalformed))

	var absent *model.Artifact
	_, _, err = model.DecodeList[model.PoseEvent](absent, "timeline", "poses")
	assert.True(t, errors.Is(err, model.ErrFieldMissing))
}

func TestArtifactSetStatus(t *testing.T) {
	set := model.ArtifactSet{}
	set.Put(model.MustParseArtifact(model.SourceAudioAnalysis, `{}`))

	status := set.Status()
	assert.Len(t, status, len(model.AllSources))
	assert.True(t, status[model.SourceAudioAnalysis])
	assert.False(t, status[model.SourceObjectDetection])
	assert.Equal(t, 1, status.Available())
}

func TestNewRunIDIsDeterministic(t *testing.T) {
	id := model.NewVideoIdentity("7123", "creator")
	at := time.Date(2024, 10, 11, 3, 4, 8, 0, time.UTC)

	runID := model.NewRunID(id, at)
	assert.Equal(t, runID, model.NewRunID(id, at))
	assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceURL, []byte("creator_7123@2024-10-11T03:04:08Z")).String(), runID)
	assert.NotEqual(t, runID, model.NewRunID(id, at.Add(time.Second)))
}
