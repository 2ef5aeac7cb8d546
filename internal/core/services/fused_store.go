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

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
)

// FusedStore persists one FusedAnalysis per identity. Write replaces the
// previous analysis atomically: readers observe the old or the new document,
// never a partial one.
type FusedStore interface {
	Write(ctx context.Context, analysis *model.FusedAnalysis) error
	Read(ctx context.Context, id model.VideoIdentity) (*model.FusedAnalysis, error)
	Delete(ctx context.Context, id model.VideoIdentity) error
}

// EncodeFused returns the canonical JSON document of an analysis. Map keys
// are sorted by encoding/json, so identical analyses encode identically.
func EncodeFused(analysis *model.FusedAnalysis) ([]byte, error) {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode fused analysis: %w", err)
	}
	return append(data, '\n'), nil
}

func decodeFused(data []byte) (*model.FusedAnalysis, error) {
	out := &model.FusedAnalysis{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to decode fused analysis: %w", err)
	}
	return out, nil
}

// FileFusedStore keeps analyses as {Dir}/{key}.json.
type FileFusedStore struct {
	Dir string
}

// NewFileFusedStore creates a store writing below dir.
func NewFileFusedStore(dir string) *FileFusedStore {
	return &FileFusedStore{Dir: dir}
}

func (s *FileFusedStore) path(id model.VideoIdentity) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}
	return filepath.Join(s.Dir, id.Key()+".json"), nil
}

// Write encodes the analysis to a temporary file in the target directory,
// syncs it and renames it over the target.
func (s *FileFusedStore) Write(ctx context.Context, analysis *model.FusedAnalysis) error {
	target, err := s.path(analysis.Identity)
	if err != nil {
		return err
	}
	data, err := EncodeFused(analysis)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.Dir, err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+analysis.Identity.Key()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	committed = true
	return nil
}

func (s *FileFusedStore) Read(_ context.Context, id model.VideoIdentity) (*model.FusedAnalysis, error) {
	target, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: fused analysis for %s", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return decodeFused(data)
}

func (s *FileFusedStore) Delete(_ context.Context, id model.VideoIdentity) error {
	target, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// GCSFusedStore keeps analyses as gs://{Bucket}/{Prefix}/{key}.json.
type GCSFusedStore struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

// NewGCSFusedStore creates a store on bucket under prefix.
func NewGCSFusedStore(client *storage.Client, bucket string, prefix string) *GCSFusedStore {
	return &GCSFusedStore{Client: client, Bucket: bucket, Prefix: prefix}
}

func (s *GCSFusedStore) object(id model.VideoIdentity) (*storage.ObjectHandle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.Client.Bucket(s.Bucket).Object(path.Join(s.Prefix, id.Key()+".json")), nil
}

// Write uploads the document in one object write. The object only becomes
// visible when Close succeeds; on any copy error the upload is cancelled.
func (s *GCSFusedStore) Write(ctx context.Context, analysis *model.FusedAnalysis) error {
	obj, err := s.object(analysis.Identity)
	if err != nil {
		return err
	}
	data, err := EncodeFused(analysis)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	writer := obj.NewWriter(writeCtx)
	writer.ContentType = "application/json"
	if _, err := writer.Write(data); err != nil {
		cancel()
		_ = writer.Close()
		return fmt.Errorf("failed to upload %s: %w", obj.ObjectName(), err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", obj.ObjectName(), err)
	}
	return nil
}

func (s *GCSFusedStore) Read(ctx context.Context, id model.VideoIdentity) (*model.FusedAnalysis, error) {
	obj, err := s.object(id)
	if err != nil {
		return nil, err
	}
	reader, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: fused analysis for %s", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return decodeFused(data)
}

func (s *GCSFusedStore) Delete(ctx context.Context, id model.VideoIdentity) error {
	obj, err := s.object(id)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}
