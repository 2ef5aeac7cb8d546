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

// BuildSceneChange merges the cloud shot list with the local scene list.
// Every shot or scene after the first of its source marks one change at its
// start time. Sources are merged additively: consumers read this timeline as
// a density, so the same cut seen by both sources counts twice.
func BuildSceneChange(in Input) model.Timeline[model.SceneChangeFrame] {
	out := model.Timeline[model.SceneChangeFrame]{}

	shots, ok := decodeList[model.CloudShot](model.CategorySceneChange,
		in.Artifacts.Get(model.SourceCloudVideoIntelligence), "shots")
	if ok {
		for i, shot := range shots {
			if i == 0 {
				continue
			}
			addSceneChange(out, in.Normalizer, model.SourceCloudVideoIntelligence, shot.Start())
		}
	}

	scenes, ok := decodeList[model.LocalScene](model.CategorySceneChange,
		in.Artifacts.Get(model.SourceSceneDetection), "scenes")
	if ok {
		for i, scene := range scenes {
			if i == 0 {
				continue
			}
			addSceneChange(out, in.Normalizer, model.SourceSceneDetection, scene.StartTime)
		}
	}
	return out
}

func addSceneChange(out model.Timeline[model.SceneChangeFrame], n Normalizer, source model.Source, start model.TimeOffset) {
	value := start.Value
	if !start.Valid {
		value = model.Seconds(0)
	}
	bucket, frame := n.Bucket(value)
	entry := out[bucket]
	entry.Frame = keepLowestFrame(entry.Frame, frame)
	entry.Events = append(entry.Events, model.SceneChangeEvent{Source: source, Time: value.Flatten()})
	out[bucket] = entry
}
