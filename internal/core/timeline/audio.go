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

// BuildAudioRatio buckets the music/speech balance samples. Samples without an
// explicit time are taken to be one second apart, starting at zero. The last
// sample of a bucket wins.
func BuildAudioRatio(in Input) model.Timeline[model.AudioRatioFrame] {
	out := model.Timeline[model.AudioRatioFrame]{}
	levels, ok := decodeList[model.AudioLevel](model.CategoryAudioRatio,
		in.Artifacts.Get(model.SourceAudioAnalysis), "audio_levels")
	if !ok {
		return out
	}
	for i, level := range levels {
		at := model.Seconds(float64(i))
		if level.Time.Valid {
			at = level.Time.Value
		}
		bucket, frame := in.Normalizer.Bucket(at)
		out[bucket] = model.AudioRatioFrame{
			Frame:  frame,
			Music:  level.Music,
			Speech: level.Speech,
			Ratio:  level.Ratio,
		}
	}
	return out
}
