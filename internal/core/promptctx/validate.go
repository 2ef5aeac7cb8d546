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


// Package promptctx prepares the slice of a fused analysis that is sent to a
// narrative generator for one analysis prompt, and validates the analysis
// before anything is sent.
package promptctx

import (
	"fmt"
	"maps"
	"math"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Issue codes.
const (
	IssueMissingIdentity  = "missing_identity"
	IssueEmptyTimelines   = "empty_timelines"
	IssueIdenticalFrames  = "identical_object_frames"
	IssueInvalidDuration  = "invalid_duration"
	identicalFramesMinLen = 3
)

// Validate inspects a fused analysis for signs that its data should not be
// trusted. Errors mean the analysis must not be narrated.
func Validate(fused *model.FusedAnalysis) []Issue {
	issues := []Issue{}
	if fused == nil {
		return append(issues, Issue{SeverityError, IssueMissingIdentity, "no analysis"})
	}
	if fused.Identity.VideoID == "" {
		issues = append(issues, Issue{SeverityError, IssueMissingIdentity, "analysis has no video id"})
	}
	if available := fused.PipelineStatus.Available(); available > 0 && fused.Timelines.Empty() {
		issues = append(issues, Issue{SeverityWarning, IssueEmptyTimelines,
			fmt.Sprintf("%d pipelines are present but every timeline is empty", available)})
	}
	if identicalObjectFrames(fused.Timelines.ObjectPresence) {
		issues = append(issues, Issue{SeverityWarning, IssueIdenticalFrames,
			"every object frame reports the same counts"})
	}
	if d := fused.Duration; d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		issues = append(issues, Issue{SeverityWarning, IssueInvalidDuration,
			fmt.Sprintf("duration %v is not positive; timelines use a single bucket", d)})
	}
	return issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func identicalObjectFrames(t model.Timeline[model.ObjectPresence]) bool {
	if len(t) < identicalFramesMinLen {
		return false
	}
	var first map[string]int
	for _, frame := range t {
		if len(frame.Objects) == 0 {
			return false
		}
		if first == nil {
			first = frame.Objects
			continue
		}
		if !maps.Equal(first, frame.Objects) {
			return false
		}
	}
	return true
}
