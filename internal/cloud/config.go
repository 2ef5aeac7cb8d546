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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, and the clients the fusion engine uses to talk to
// Google Cloud.
//
// Structs:
//   - Application: General settings such as the project, worker pool size and log level.
//   - Storage: Where raw artifacts are read from and fused analyses are written to.
//   - BigQueryDataSource: Dataset and table of the BigQuery fusion run index.
//   - Index: Which fusion run index back end to use.
//   - VertexAiLLMModel: Configuration for a Vertex AI Large Language Model (LLM).
//   - TopicSubscription: Configuration for a single Pub/Sub topic subscription.
//   - Server: HTTP listener settings.
//   - Config: The top-level struct that aggregates all other configuration structs.
package cloud

import (
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/insights"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"google.golang.org/genai"
)

// Storage and index back ends.
const (
	BackendFile     = "file"
	BackendGCS      = "gcs"
	BackendSQLite   = "sqlite"
	BackendBigQuery = "bigquery"
	BackendNone     = "none"
)

// PipelineCompleteSubscription is the logical name of the subscription that
// triggers a fusion run.
const PipelineCompleteSubscription = "PipelineComplete"

// DefaultSafetySettings passes every harm category through. Narratives are
// generated from our own analysis data.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Application holds general application settings.
type Application struct {
	Name            string `toml:"name"`              // The name of the application.
	GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID. Empty disables cloud clients and exporters.
	GoogleLocation  string `toml:"location"`          // The Google Cloud location.
	ThreadPoolSize  int    `toml:"thread_pool_size"`  // Upper bound on concurrently running timeline builders.
	LogLevel        string `toml:"log_level"`         // One of debug, info, warn, error.
}

// Storage represents where artifacts live and where fused analyses go.
type Storage struct {
	Backend        string `toml:"backend"`         // "file" or "gcs".
	LocalRoot      string `toml:"local_root"`      // Root directory of the file back end.
	ArtifactBucket string `toml:"artifact_bucket"` // Bucket holding raw pipeline artifacts (gcs back end).
	FusedBucket    string `toml:"fused_bucket"`    // Bucket receiving fused analyses (gcs back end).
	FusedPrefix    string `toml:"fused_prefix"`    // Object prefix, or sub directory, of fused analyses.
}

// BigQueryDataSource represents the BigQuery dataset used by the fusion run index.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`      // The name of the BigQuery dataset.
	FusionTable string `toml:"fusion_table"` // The table receiving one row per fusion run.
}

// Index selects the fusion run index.
type Index struct {
	Backend    string `toml:"backend"`     // "sqlite", "bigquery" or "none".
	SQLitePath string `toml:"sqlite_path"` // Database file of the sqlite back end.
}

// VertexAiLLMModel represents the configuration for a Vertex AI large language model (LLM).
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Vertex AI LLM.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the LLM.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter for the LLM.
	TopP               float32 `toml:"top_p"`               // The top_p parameter for the LLM.
	TopK               float32 `toml:"top_k"`               // The top_k parameter for the LLM.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of tokens for the LLM output.
	OutputFormat       string  `toml:"output_format"`       // The desired output format for the LLM.
	RateLimit          int     `toml:"rate_limit"`          // The rate limit for the LLM in requests per second.
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The timeout for the subscription in seconds.
}

// Server holds the HTTP listener settings.
type Server struct {
	Port           string   `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Config represents the overall configuration for the application, loaded from TOML files.
type Config struct {
	Application        Application                  `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	Artifacts          map[string]string            `toml:"artifacts"` // Path templates keyed by source name; "{id}" is replaced by the identity key.
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	Index              Index                        `toml:"index"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by a logical name (e.g., "PipelineComplete").
	Scoring            insights.Weights             `toml:"scoring"`
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`    // Keyed by a logical name (e.g., "narrator").
	NarrativeModel     string                       `toml:"narrative_model"` // Agent model key used for narratives; empty disables them.
	Server             Server                       `toml:"server"`
}

// DefaultArtifactTemplates returns the path template of every source.
func DefaultArtifactTemplates() map[string]string {
	return map[string]string{
		string(model.SourceCloudVideoIntelligence): "cloud_video_intelligence/{id}/{id}_analysis.json",
		string(model.SourceObjectDetection):        "object_detection/{id}/{id}_detections.json",
		string(model.SourceHumanAnalysis):          "human_analysis/{id}/{id}_human_analysis.json",
		string(model.SourceCreativeAnalysis):       "creative_analysis/{id}/{id}_creative_analysis.json",
		string(model.SourceAudioAnalysis):          "audio_analysis/{id}/{id}_audio_analysis.json",
		string(model.SourceSceneDetection):         "scene_detection/{id}/{id}_scenes.json",
		string(model.SourceStaticMetadata):         "static_metadata/{id}/{id}_metadata.json",
	}
}

// NewConfig creates a Config holding the defaults. Values decoded from TOML
// files overwrite them; map entries are merged.
func NewConfig() *Config {
	return &Config{
		Application: Application{
			Name:           "media-fusion",
			ThreadPoolSize: 4,
			LogLevel:       "info",
		},
		Storage: Storage{
			Backend:     BackendFile,
			LocalRoot:   "data",
			FusedPrefix: "fused",
		},
		Artifacts:          DefaultArtifactTemplates(),
		Index:              Index{Backend: BackendNone},
		TopicSubscriptions: make(map[string]TopicSubscription),
		Scoring:            insights.DefaultWeights(),
		AgentModels:        make(map[string]VertexAiLLMModel),
		Server:             Server{Port: "8080"},
	}
}

// ArtifactTemplates returns the configured templates keyed by source.
// Unknown source names are ignored.
func (c *Config) ArtifactTemplates() map[model.Source]string {
	out := make(map[model.Source]string, len(model.AllSources))
	defaults := DefaultArtifactTemplates()
	for _, source := range model.AllSources {
		if tmpl, ok := c.Artifacts[string(source)]; ok && tmpl != "" {
			out[source] = tmpl
		} else {
			out[source] = defaults[string(source)]
		}
	}
	return out
}
