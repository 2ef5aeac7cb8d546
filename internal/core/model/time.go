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

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// TimeKind enumerates the time encodings produced by the upstream pipelines.
type TimeKind int

const (
	// KindSeconds is a floating point second count.
	KindSeconds TimeKind = iota
	// KindFrame is a 1-based sampled frame index.
	KindFrame
	// KindOffset is a structured {seconds, nanos} offset.
	KindOffset
)

// TimeValue is a tagged union over the time encodings. The zero value is 0 seconds.
type TimeValue struct {
	kind    TimeKind
	frame   int
	seconds float64
	nanos   int64
}

// Seconds builds a TimeValue from a second count.
func Seconds(s float64) TimeValue {
	return TimeValue{kind: KindSeconds, seconds: s}
}

// Frame builds a TimeValue from a 1-based frame index.
func Frame(index int) TimeValue {
	return TimeValue{kind: KindFrame, frame: index}
}

// Offset builds a TimeValue from a structured offset.
func Offset(seconds int64, nanos int64) TimeValue {
	return TimeValue{kind: KindOffset, seconds: float64(seconds), nanos: nanos}
}

// Kind reports the encoding of the value.
func (t TimeValue) Kind() TimeKind {
	return t.kind
}

// FrameIndex returns the frame index for KindFrame values and 0 otherwise.
func (t TimeValue) FrameIndex() int {
	if t.kind != KindFrame {
		return 0
	}
	return t.frame
}

// Flatten returns the value in seconds. Offsets flatten as seconds + nanos/1e9.
// Frame values have no intrinsic second value and flatten to 0.
func (t TimeValue) Flatten() float64 {
	switch t.kind {
	case KindOffset:
		return t.seconds + float64(t.nanos)/1e9
	case KindSeconds:
		return t.seconds
	default:
		return 0
	}
}

func (t TimeValue) String() string {
	switch t.kind {
	case KindFrame:
		return fmt.Sprintf("frame:%d", t.frame)
	case KindOffset:
		return fmt.Sprintf("offset:%.3fs", t.Flatten())
	default:
		return fmt.Sprintf("%.3fs", t.seconds)
	}
}

// TimeOffset decodes the time fields found in pipeline artifacts. It accepts a
// JSON number of seconds, a duration string such as "1.5s", or a protobuf style
// {seconds, nanos} object where seconds may itself be a string.
type TimeOffset struct {
	Value TimeValue
	Valid bool
}

type structuredOffset struct {
	Seconds json.RawMessage `json:"seconds"`
	Nanos   json.RawMessage `json:"nanos"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *TimeOffset) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = TimeOffset{}
		return nil
	}
	switch data[0] {
	case '{':
		var s structuredOffset
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		secs, err := looseInt(s.Seconds)
		if err != nil {
			return fmt.Errorf("offset seconds: %w", err)
		}
		nanos, err := looseInt(s.Nanos)
		if err != nil {
			return fmt.Errorf("offset nanos: %w", err)
		}
		*o = TimeOffset{Value: Offset(secs, nanos), Valid: true}
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(str), "s"), 64)
		if err != nil {
			return fmt.Errorf("offset %q: %w", str, err)
		}
		*o = TimeOffset{Value: Seconds(f), Valid: true}
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		*o = TimeOffset{Value: Seconds(f), Valid: true}
	}
	return nil
}

// Seconds returns the flattened value, or 0 when the offset was absent.
func (o TimeOffset) Seconds() float64 {
	if !o.Valid {
		return 0
	}
	return o.Value.Flatten()
}

// FrameRef decodes a frame reference that is either a number or a "frame_NNNN" string.
type FrameRef int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FrameRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		n, err := ParseFrameName(str)
		if err != nil {
			return err
		}
		*f = FrameRef(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FrameRef(int(n))
	return nil
}

// ParseFrameName extracts the trailing frame number from names such as
// "frame_0042" or "frame_0042.jpg".
func ParseFrameName(name string) (int, error) {
	base := strings.TrimSuffix(name, ".jpg")
	base = strings.TrimSuffix(base, ".png")
	idx := strings.LastIndexAny(base, "_-")
	digits := base
	if idx >= 0 {
		digits = base[idx+1:]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("frame name %q: %w", name, err)
	}
	return n, nil
}

func looseInt(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if raw[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, err
		}
		return strconv.ParseInt(str, 10, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return int64(f), nil
}
