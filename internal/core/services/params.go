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


package services

import "github.com/jaycherian/gcp-go-media-fusion/internal/core/model"

// Context keys shared by FusionService and the commands of the fusion workflow.
const (
	ParamIdentity       = "__IDENTITY__"        // model.VideoIdentity
	ParamFusedAt        = "__FUSED_AT__"        // time.Time
	ParamArtifacts      = "__ARTIFACTS__"       // model.ArtifactSet
	ParamPipelineStatus = "__PIPELINE_STATUS__" // model.PipelineStatus
	ParamStaticMetadata = "__STATIC_METADATA__" // model.StaticMetadata
	ParamNormalizer     = "__NORMALIZER__"      // timeline.Normalizer
	ParamTimelines      = "__TIMELINES__"       // model.Timelines
	ParamSummary        = "__SUMMARY__"         // model.MetadataSummary
	ParamInsights       = "__INSIGHTS__"        // model.InsightSet
	ParamFused          = "__FUSED__"           // *model.FusedAnalysis
)

// TimelineParam is the key a single timeline builder writes its output to.
func TimelineParam(c model.Category) string {
	return "__TIMELINE__" + string(c)
}
