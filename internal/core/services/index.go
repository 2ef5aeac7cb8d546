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
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-media-fusion/internal/core/model"
	"google.golang.org/api/iterator"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// sqliteTimeFormat has a fixed width so stored timestamps sort as text.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// FusionRun is the index row written for every successful fusion.
type FusionRun struct {
	RunID              string    `bigquery:"run_id" json:"run_id"`
	IdentityKey        string    `bigquery:"identity_key" json:"identity_key"`
	VideoID            string    `bigquery:"video_id" json:"video_id"`
	AccountID          string    `bigquery:"account_id" json:"account_id"`
	FusedAt            time.Time `bigquery:"fused_at" json:"fused_at"`
	FrameCount         int       `bigquery:"frame_count" json:"frame_count"`
	Duration           float64   `bigquery:"duration" json:"duration"`
	PipelinesAvailable int       `bigquery:"pipelines_available" json:"pipelines_available"`
	SceneChanges       int       `bigquery:"scene_changes" json:"scene_changes"`
	SceneComplexity    float64   `bigquery:"scene_complexity" json:"scene_complexity"`
	Indicators         string    `bigquery:"indicators" json:"indicators"` // Comma separated engagement indicators.
	Degraded           bool      `bigquery:"degraded" json:"degraded"`
}

// NewFusionRun summarises an analysis into an index row.
func NewFusionRun(analysis *model.FusedAnalysis) FusionRun {
	return FusionRun{
		RunID:              analysis.RunID,
		IdentityKey:        analysis.Identity.Key(),
		VideoID:            analysis.Identity.VideoID,
		AccountID:          analysis.Identity.AccountID,
		FusedAt:            analysis.FusedAt.UTC(),
		FrameCount:         analysis.FrameCount,
		Duration:           analysis.Duration,
		PipelinesAvailable: analysis.PipelineStatus.Available(),
		SceneChanges:       analysis.Timelines.SceneChangeCount(),
		SceneComplexity:    analysis.Insights.SceneComplexity,
		Indicators:         strings.Join(analysis.Insights.EngagementIndicators, ","),
		Degraded:           analysis.Duration <= 0 || math.IsNaN(analysis.Duration) || math.IsInf(analysis.Duration, 0),
	}
}

// FusionIndex records fusion runs so operators can find the latest run of a
// video without reading the fused document.
type FusionIndex interface {
	Record(ctx context.Context, run FusionRun) error
	// Latest returns the most recent run for an identity key, or an error
	// wrapping model.ErrNotFound.
	Latest(ctx context.Context, identityKey string) (*FusionRun, error)
	Close() error
}

// NopIndex discards every run.
type NopIndex struct{}

func (NopIndex) Record(context.Context, FusionRun) error { return nil }

func (NopIndex) Latest(_ context.Context, identityKey string) (*FusionRun, error) {
	return nil, fmt.Errorf("%w: run for %s", model.ErrNotFound, identityKey)
}

func (NopIndex) Close() error { return nil }

// SQLiteIndex keeps the run index in a local SQLite database.
type SQLiteIndex struct {
	conn   *sql.DB
	logger *slog.Logger
}

// NewSQLiteIndex opens, creating when needed, the database at dbPath and
// applies the pending migrations. ":memory:" opens a private in-memory database.
func NewSQLiteIndex(dbPath string, logger *slog.Logger) (*SQLiteIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	idx := &SQLiteIndex{conn: conn, logger: logger}
	if err := idx.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return idx, nil
}

func (s *SQLiteIndex) Close() error {
	return s.conn.Close()
}

func (s *SQLiteIndex) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", name, err)
		}
		s.logger.Info("applied migration", "name", name)
	}
	return nil
}

func (s *SQLiteIndex) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}
	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Record inserts the run, replacing an existing row with the same run id.
func (s *SQLiteIndex) Record(ctx context.Context, run FusionRun) error {
	_, err := s.conn.ExecContext(ctx, QryInsertFusionRun,
		run.RunID, run.IdentityKey, run.VideoID, run.AccountID,
		run.FusedAt.UTC().Format(sqliteTimeFormat), run.FrameCount, run.Duration,
		run.PipelinesAvailable, run.SceneChanges, run.SceneComplexity, run.Indicators, run.Degraded)
	if err != nil {
		return fmt.Errorf("failed to record fusion run %s: %w", run.RunID, err)
	}
	return nil
}

func (s *SQLiteIndex) Latest(ctx context.Context, identityKey string) (*FusionRun, error) {
	var (
		run     FusionRun
		fusedAt string
	)
	err := s.conn.QueryRowContext(ctx, QryLatestFusionRun, identityKey).Scan(
		&run.RunID, &run.IdentityKey, &run.VideoID, &run.AccountID, &fusedAt,
		&run.FrameCount, &run.Duration, &run.PipelinesAvailable, &run.SceneChanges,
		&run.SceneComplexity, &run.Indicators, &run.Degraded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run for %s", model.ErrNotFound, identityKey)
	}
	if err != nil {
		return nil, err
	}
	if run.FusedAt, err = time.Parse(sqliteTimeFormat, fusedAt); err != nil {
		return nil, fmt.Errorf("failed to parse fused_at %q: %w", fusedAt, err)
	}
	return &run, nil
}

// BigQueryIndex streams runs into a BigQuery table.
type BigQueryIndex struct {
	Client      *bigquery.Client
	DatasetName string
	TableName   string
}

// NewBigQueryIndex creates an index on dataset.table.
func NewBigQueryIndex(client *bigquery.Client, dataset string, table string) *BigQueryIndex {
	return &BigQueryIndex{Client: client, DatasetName: dataset, TableName: table}
}

// GetFQN returns the table name in standard SQL form (project.dataset.table).
func (b *BigQueryIndex) GetFQN() string {
	fqn := b.Client.Dataset(b.DatasetName).Table(b.TableName).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", 1)
}

// FusionRunSchema infers the table schema from FusionRun.
func FusionRunSchema() (bigquery.Schema, error) {
	return bigquery.InferSchema(FusionRun{})
}

// Record streams the run using its run id as insert id, so a retried insert
// of the same run is de-duplicated by BigQuery.
func (b *BigQueryIndex) Record(ctx context.Context, run FusionRun) error {
	schema, err := FusionRunSchema()
	if err != nil {
		return err
	}
	inserter := b.Client.Dataset(b.DatasetName).Table(b.TableName).Inserter()
	saver := &bigquery.StructSaver{Schema: schema, InsertID: run.RunID, Struct: run}
	if err := inserter.Put(ctx, saver); err != nil {
		return fmt.Errorf("failed to insert fusion run %s: %w", run.RunID, err)
	}
	return nil
}

func (b *BigQueryIndex) Latest(ctx context.Context, identityKey string) (*FusionRun, error) {
	q := b.Client.Query(fmt.Sprintf(QryLatestFusionRunBQ, b.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "identity_key", Value: identityKey}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	run := &FusionRun{}
	err = itr.Next(run)
	if errors.Is(err, iterator.Done) {
		return nil, fmt.Errorf("%w: run for %s", model.ErrNotFound, identityKey)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (b *BigQueryIndex) Close() error { return nil }
