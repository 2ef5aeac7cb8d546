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

package cloud

import (
	"encoding/json"
	"fmt"

	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// GetTriggerName returns the context key under which the parsed trigger is stored.
func GetTriggerName() string {
	return "__PIPELINE__TRIGGER__"
}

// PipelineCompletion is the message published by the job orchestrator every
// time one analysis pipeline finishes writing its artifact for a video.
type PipelineCompletion struct {
	VideoID   string `json:"video_id"`
	AccountID string `json:"account_id,omitempty"`
	Pipeline  string `json:"pipeline,omitempty"` // Source name of the pipeline that completed; informational.
}

// ParsePipelineCompletion decodes data and validates the identity it names.
func ParsePipelineCompletion(data []byte) (*PipelineCompletion, error) {
	var out PipelineCompletion
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pipeline completion: %w", err)
	}
	if err := out.Identity().Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Identity returns the video identity named by the message.
func (p PipelineCompletion) Identity() model.VideoIdentity {
	return model.NewVideoIdentity(p.VideoID, p.AccountID)
}
