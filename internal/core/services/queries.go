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

// Queries of the fusion run index. SQLite statements use positional
// parameters; BigQuery statements take the table name through %s and values
// through named parameters.
const (
	// QryInsertFusionRun upserts one run row keyed by run_id.
	QryInsertFusionRun = `INSERT OR REPLACE INTO fusion_runs
	(run_id, identity_key, video_id, account_id, fused_at, frame_count, duration,
	 pipelines_available, scene_changes, scene_complexity, indicators, degraded)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	// QryLatestFusionRun selects the newest run of an identity. fused_at is
	// stored as fixed width RFC 3339 text in UTC, which sorts chronologically.
	QryLatestFusionRun = `SELECT run_id, identity_key, video_id, account_id, fused_at, frame_count,
	duration, pipelines_available, scene_changes, scene_complexity, indicators, degraded
	FROM fusion_runs WHERE identity_key = ? ORDER BY fused_at DESC LIMIT 1`

	// QryLatestFusionRunBQ is the BigQuery form of QryLatestFusionRun.
	QryLatestFusionRunBQ = "SELECT * FROM `%s` WHERE identity_key = @identity_key ORDER BY fused_at DESC LIMIT 1"
)
