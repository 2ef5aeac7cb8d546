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

// Package model defines the core data structures for the fusion engine.
// This file, `identity.go`, contains the VideoIdentity type which is the sole
// key used to locate pipeline artifacts and the persisted fused analysis, and
// the sentinel errors shared by every layer of the engine.
package model

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidIdentity is returned when a VideoIdentity cannot be used as a storage key.
	ErrInvalidIdentity = errors.New("invalid video identity")
	// ErrMalformedArtifact marks an artifact whose bytes are not a JSON object.
	ErrMalformedArtifact = errors.New("malformed artifact")
	// ErrFieldMissing marks an artifact field that is not present.
	ErrFieldMissing = errors.New("artifact field missing")
	// ErrFieldMalformed marks an artifact field whose shape does not match the expected type.
	ErrFieldMalformed = errors.New("artifact field malformed")
	// ErrPersistence wraps any I/O failure of the final fused write.
	ErrPersistence = errors.New("persistence failure")
	// ErrNotFound is returned when a persisted object or artifact does not exist.
	ErrNotFound = errors.New("not found")
)

var identityPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// VideoIdentity identifies a single video. The optional AccountID is the
// owning account on the source platform.
type VideoIdentity struct {
	VideoID   string `json:"video_id"`
	AccountID string `json:"account_id,omitempty"`
}

// NewVideoIdentity is a convenience constructor.
func NewVideoIdentity(videoID string, accountID string) VideoIdentity {
	return VideoIdentity{VideoID: videoID, AccountID: accountID}
}

// Key returns the storage key for the identity. Artifacts and the fused output
// are addressed by this value alone.
func (v VideoIdentity) Key() string {
	if v.AccountID == "" {
		return v.VideoID
	}
	return v.AccountID + "_" + v.VideoID
}

// Validate ensures both parts of the identity are safe to embed in a file path
// or object name.
func (v VideoIdentity) Validate() error {
	if v.VideoID == "" {
		return fmt.Errorf("%w: empty video id", ErrInvalidIdentity)
	}
	if !identityPattern.MatchString(v.VideoID) || v.VideoID == "." || v.VideoID == ".." {
		return fmt.Errorf("%w: video id %q", ErrInvalidIdentity, v.VideoID)
	}
	if v.AccountID != "" && !identityPattern.MatchString(v.AccountID) {
		return fmt.Errorf("%w: account id %q", ErrInvalidIdentity, v.AccountID)
	}
	return nil
}

func (v VideoIdentity) String() string {
	return v.Key()
}
