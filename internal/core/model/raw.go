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

// These are the typed views decoded out of raw pipeline artifacts at the
// builder boundary. They only name the fields the engine reads.

// CloudShot is a shot boundary from the cloud video intelligence artifact.
type CloudShot struct {
	StartTime       TimeOffset `json:"startTime"`
	EndTime         TimeOffset `json:"endTime"`
	StartTimeOffset TimeOffset `json:"startTimeOffset"`
	EndTimeOffset   TimeOffset `json:"endTimeOffset"`
}

// Start returns the shot start regardless of which field name the producer used.
func (s CloudShot) Start() TimeOffset {
	if s.StartTime.Valid {
		return s.StartTime
	}
	return s.StartTimeOffset
}

// SpeechTranscription is one transcribed utterance with ranked alternatives.
type SpeechTranscription struct {
	Alternatives []SpeechAlternative `json:"alternatives"`
}

// SpeechAlternative is one recognition hypothesis.
type SpeechAlternative struct {
	Transcript string       `json:"transcript"`
	Confidence float64      `json:"confidence"`
	Words      []SpeechWord `json:"words"`
}

// SpeechWord is a word with timing.
type SpeechWord struct {
	Word       string     `json:"word"`
	StartTime  TimeOffset `json:"startTime"`
	EndTime    TimeOffset `json:"endTime"`
	Confidence float64    `json:"confidence"`
}

// FrameSummary is one entry in the object detector's frame_summaries list.
type FrameSummary struct {
	FrameNumber  FrameRef       `json:"frame_number"`
	ObjectCounts map[string]int `json:"object_counts"`
	TotalObjects int            `json:"total_objects"`
}

// DetectorSummary is the summary block shared by the frame based detectors.
type DetectorSummary struct {
	TotalFrames       int `json:"total_frames"`
	UniqueObjectTypes int `json:"unique_object_types"`
}

// GestureEvent is a gesture detected on a frame.
type GestureEvent struct {
	Frame   FrameRef `json:"frame"`
	Gesture string   `json:"gesture"`
}

// ExpressionEvent is a facial expression detected on a frame.
type ExpressionEvent struct {
	Frame      FrameRef `json:"frame"`
	Expression string   `json:"expression"`
	Confidence float64  `json:"confidence"`
}

// PoseEvent is a body pose detected on a frame. Distance is optional.
type PoseEvent struct {
	Frame    FrameRef `json:"frame"`
	Pose     string   `json:"pose"`
	Distance string   `json:"distance"`
}

// HumanInsights are the aggregate figures reported by the pose pipeline.
type HumanInsights struct {
	HumanPresence float64 `json:"human_presence"`
	AverageFaces  float64 `json:"average_faces"`
}

// FrameDetail is one analysed frame from the OCR/creative pipeline.
type FrameDetail struct {
	Frame            FrameRef          `json:"frame"`
	TextElements     []TextElement     `json:"text_elements"`
	CreativeElements []CreativeElement `json:"creative_elements"`
}

// TextElement is one detected text region.
type TextElement struct {
	Text       string    `json:"text"`
	Category   string    `json:"category,omitempty"`
	Confidence float64   `json:"confidence"`
	BBox       []float64 `json:"bbox,omitempty"`
}

// CreativeElement is one detected creative element such as a sticker or a graphic.
type CreativeElement struct {
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Kind returns the element type, falling back to its category.
func (c CreativeElement) Kind() string {
	if c.Type != "" {
		return c.Type
	}
	return c.Category
}

// SpeechSegment is one segment from the audio pipeline.
type SpeechSegment struct {
	StartTime  TimeOffset `json:"start_time"`
	Duration   float64    `json:"duration"`
	Text       string     `json:"text"`
	Confidence float64    `json:"confidence"`
}

// AudioLevel is one sample of the music/speech balance.
type AudioLevel struct {
	Time   TimeOffset `json:"time"`
	Music  float64    `json:"music"`
	Speech float64    `json:"speech"`
	Ratio  float64    `json:"ratio"`
}

// LocalScene is one scene reported by the local scene detector.
type LocalScene struct {
	StartTime TimeOffset `json:"start_time"`
	EndTime   TimeOffset `json:"end_time"`
	Duration  float64    `json:"duration"`
}
