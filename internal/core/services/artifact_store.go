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


// Package services contains the storage, indexing and fusion services of the
// engine. Each back end comes in a local file flavour and a Google Cloud
// flavour so that the same workflow runs on a laptop and in production.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"google.golang.org/api/iterator"
)

// IdentityPlaceholder is replaced by the identity key in artifact templates.
const IdentityPlaceholder = "{id}"

// ArtifactStore reads the raw outputs of the analysis pipelines.
type ArtifactStore interface {
	// ReadArtifact returns the bytes written by the pipeline for source, or
	// an error wrapping model.ErrNotFound when it has not written any yet.
	ReadArtifact(ctx context.Context, id model.VideoIdentity, source model.Source) ([]byte, error)

	// ListArtifacts returns the sources with an artifact for id, in
	// model.AllSources order.
	ListArtifacts(ctx context.Context, id model.VideoIdentity) ([]model.Source, error)
}

// ArtifactTemplates maps every source to its relative path template.
type ArtifactTemplates map[model.Source]string

// Path resolves the location of the artifact of source for id.
func (t ArtifactTemplates) Path(id model.VideoIdentity, source model.Source) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}
	tmpl, ok := t[source]
	if !ok || tmpl == "" {
		return "", fmt.Errorf("no artifact template for source %s", source)
	}
	return strings.ReplaceAll(tmpl, IdentityPlaceholder, id.Key()), nil
}

// FileArtifactStore reads artifacts below a local root directory.
type FileArtifactStore struct {
	Root      string
	Templates ArtifactTemplates
}

// NewFileArtifactStore creates a store rooted at root.
func NewFileArtifactStore(root string, templates ArtifactTemplates) *FileArtifactStore {
	return &FileArtifactStore{Root: root, Templates: templates}
}

func (s *FileArtifactStore) path(id model.VideoIdentity, source model.Source) (string, error) {
	rel, err := s.Templates.Path(id, source)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, filepath.FromSlash(rel)), nil
}

func (s *FileArtifactStore) ReadArtifact(ctx context.Context, id model.VideoIdentity, source model.Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(id, source)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s artifact for %s", model.ErrNotFound, source, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func (s *FileArtifactStore) ListArtifacts(ctx context.Context, id model.VideoIdentity) ([]model.Source, error) {
	out := make([]model.Source, 0, len(model.AllSources))
	for _, source := range model.AllSources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := s.path(id, source)
		if err != nil {
			return nil, err
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			out = append(out, source)
		}
	}
	return out, nil
}

// GCSArtifactStore reads artifacts from a Cloud Storage bucket.
type GCSArtifactStore struct {
	Client    *storage.Client
	Bucket    string
	Templates ArtifactTemplates
}

// NewGCSArtifactStore creates a store on bucket.
func NewGCSArtifactStore(client *storage.Client, bucket string, templates ArtifactTemplates) *GCSArtifactStore {
	return &GCSArtifactStore{Client: client, Bucket: bucket, Templates: templates}
}

func (s *GCSArtifactStore) ReadArtifact(ctx context.Context, id model.VideoIdentity, source model.Source) ([]byte, error) {
	name, err := s.Templates.Path(id, source)
	if err != nil {
		return nil, err
	}
	reader, err := s.Client.Bucket(s.Bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s artifact for %s", model.ErrNotFound, source, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", s.Bucket, name, err)
	}
	defer func() { _ = reader.Close() }()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", s.Bucket, name, err)
	}
	return data, nil
}

// ListArtifacts lists the objects below the directory of every template once
// and matches the resolved names against the listing.
func (s *GCSArtifactStore) ListArtifacts(ctx context.Context, id model.VideoIdentity) ([]model.Source, error) {
	names := make(map[model.Source]string, len(model.AllSources))
	prefixes := make(map[string]struct{})
	for _, source := range model.AllSources {
		name, err := s.Templates.Path(id, source)
		if err != nil {
			return nil, err
		}
		names[source] = name
		prefix := ""
		if i := strings.LastIndex(name, "/"); i >= 0 {
			prefix = name[:i+1]
		}
		prefixes[prefix] = struct{}{}
	}

	found := make(map[string]struct{})
	bucket := s.Client.Bucket(s.Bucket)
	for prefix := range prefixes {
		it := bucket.Objects(ctx, &storage.Query{Prefix: prefix})
		for {
			attrs, err := it.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to list gs://%s/%s: %w", s.Bucket, prefix, err)
			}
			found[attrs.Name] = struct{}{}
		}
	}

	out := make([]model.Source, 0, len(model.AllSources))
	for _, source := range model.AllSources {
		if _, ok := found[names[source]]; ok {
			out = append(out, source)
		}
	}
	return out, nil
}
