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
	"strings"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// Camera distances inferred from pose labels.
const (
	DistanceCloseUp = "close-up"
	DistanceMedium  = "medium"
	DistanceWide    = "wide"
	DistanceUnknown = "unknown"
)

// poseDistances is checked in order; the first keyword contained in the pose
// label decides the distance.
var poseDistances = []struct {
	keyword  string
	distance string
}{
	{"face", DistanceCloseUp},
	{"head", DistanceCloseUp},
	{"close", DistanceCloseUp},
	{"upper", DistanceMedium},
	{"half", DistanceMedium},
	{"torso", DistanceMedium},
	{"sitting", DistanceMedium},
	{"full", DistanceWide},
	{"standing", DistanceWide},
	{"walking", DistanceWide},
	{"wide", DistanceWide},
}

// BuildGesture appends every detected gesture to its bucket.
func BuildGesture(in Input) model.Timeline[model.GestureFrame] {
	out := model.Timeline[model.GestureFrame]{}
	events, ok := decodeList[model.GestureEvent](model.CategoryGesture,
		in.Artifacts.Get(model.SourceHumanAnalysis), "timeline", "gestures")
	if !ok {
		return out
	}
	for _, e := range events {
		if e.Gesture == "" {
			continue
		}
		bucket, frame := bucketForFrame(in.Normalizer, e.Frame)
		entry := out[bucket]
		entry.Frame = keepLowestFrame(entry.Frame, frame)
		entry.Gestures = append(entry.Gestures, e.Gesture)
		out[bucket] = entry
	}
	return out
}

// BuildExpression keeps the highest confidence expression per bucket.
func BuildExpression(in Input) model.Timeline[model.ExpressionFrame] {
	out := model.Timeline[model.ExpressionFrame]{}
	events, ok := decodeList[model.ExpressionEvent](model.CategoryExpression,
		in.Artifacts.Get(model.SourceHumanAnalysis), "timeline", "expressions")
	if !ok {
		return out
	}
	for _, e := range events {
		if e.Expression == "" {
			continue
		}
		bucket, frame := bucketForFrame(in.Normalizer, e.Frame)
		existing, exists := out[bucket]
		if exists && existing.Confidence >= e.Confidence {
			continue
		}
		out[bucket] = model.ExpressionFrame{Frame: frame, Expression: e.Expression, Confidence: e.Confidence}
	}
	return out
}

// BuildCameraDistance infers shot framing from the pose timeline. An explicit
// distance reported by the pipeline wins over the pose label mapping; the
// first pose seen in a bucket is kept.
func BuildCameraDistance(in Input) model.Timeline[model.CameraFraming] {
	out := model.Timeline[model.CameraFraming]{}
	events, ok := decodeList[model.PoseEvent](model.CategoryCameraDistance,
		in.Artifacts.Get(model.SourceHumanAnalysis), "timeline", "poses")
	if !ok {
		return out
	}
	for _, e := range events {
		if e.Pose == "" && e.Distance == "" {
			continue
		}
		bucket, frame := bucketForFrame(in.Normalizer, e.Frame)
		if existing, exists := out[bucket]; exists && existing.Frame <= frame {
			continue
		}
		distance := e.Distance
		if distance == "" {
			distance = DistanceForPose(e.Pose)
		}
		out[bucket] = model.CameraFraming{Frame: frame, Distance: distance, Pose: e.Pose}
	}
	return out
}

// DistanceForPose maps a pose label to a camera distance.
func DistanceForPose(pose string) string {
	lower := strings.ToLower(pose)
	for _, pd := range poseDistances {
		if strings.Contains(lower, pd.keyword) {
			return pd.distance
		}
	}
	return DistanceUnknown
}

func bucketForFrame(n Normalizer, ref model.FrameRef) (model.Bucket, int) {
	bucket, index := n.Bucket(model.Frame(int(ref)))
	if ref >= 1 {
		return bucket, int(ref)
	}
	return bucket, index
}
