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


package commands

import (
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/metadata"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/services"
)

// artifactsReady is the precondition shared by the commands that read the
// artifact set.
func artifactsReady(context cor.Context) bool {
	return context != nil && context.Get(services.ParamArtifacts) != nil
}

// PipelineStatusRecorder records which sources delivered an artifact.
type PipelineStatusRecorder struct {
	cor.BaseCommand
}

func NewPipelineStatusRecorder(name string) *PipelineStatusRecorder {
	return &PipelineStatusRecorder{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *PipelineStatusRecorder) IsExecutable(context cor.Context) bool {
	return artifactsReady(context)
}

func (c *PipelineStatusRecorder) Execute(context cor.Context) {
	artifacts := context.Get(services.ParamArtifacts).(model.ArtifactSet)
	context.Add(services.ParamPipelineStatus, artifacts.Status())
	c.Succeeded(context)
}

// StaticMetadataExtractor extracts the platform metadata snapshot. An absent
// static metadata artifact yields the zero snapshot.
type StaticMetadataExtractor struct {
	cor.BaseCommand
}

func NewStaticMetadataExtractor(name string) *StaticMetadataExtractor {
	return &StaticMetadataExtractor{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *StaticMetadataExtractor) IsExecutable(context cor.Context) bool {
	return artifactsReady(context)
}

func (c *StaticMetadataExtractor) Execute(context cor.Context) {
	artifacts := context.Get(services.ParamArtifacts).(model.ArtifactSet)
	context.Add(services.ParamStaticMetadata, metadata.Extract(artifacts.Get(model.SourceStaticMetadata)))
	c.Succeeded(context)
}
