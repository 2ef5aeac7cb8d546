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
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// BuildObjectPresence buckets the object detector's per-frame summaries.
// Counts for frames sharing a bucket are summed.
func BuildObjectPresence(in Input) model.Timeline[model.ObjectPresence] {
	out := model.Timeline[model.ObjectPresence]{}
	summaries, ok := decodeList[model.FrameSummary](model.CategoryObjectPresence,
		in.Artifacts.Get(model.SourceObjectDetection), "frame_summaries")
	if !ok {
		return out
	}
	for _, s := range summaries {
		if len(s.ObjectCounts) == 0 && s.TotalObjects == 0 {
			continue
		}
		frame := int(s.FrameNumber)
		bucket, index := in.Normalizer.Bucket(model.Frame(frame))
		if frame < 1 {
			frame = index
		}
		entry, exists := out[bucket]
		if !exists {
			entry = model.ObjectPresence{Objects: map[string]int{}}
		}
		entry.Frame = keepLowestFrame(entry.Frame, frame)
		total := 0
		for label, count := range s.ObjectCounts {
			entry.Objects[label] += count
			total += count
		}
		if s.TotalObjects > total {
			total = s.TotalObjects
		}
		entry.TotalObjects += total
		out[bucket] = entry
	}
	return out
}
