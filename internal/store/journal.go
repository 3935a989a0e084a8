/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store keeps a local SQLite journal of scene snapshots per
// proposal. It is a safety net, not the source of truth: autosave
// writes here before going to the network, and crash recovery dumps
// the in-memory scene here on panic.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"citysketch/internal/domain"
	applog "citysketch/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	JournalFileName = "recovery.sqlite"

	// MaxSnapshotsPerProposal bounds the journal; older snapshots are
	// pruned after every write.
	MaxSnapshotsPerProposal = 50

	schemaVersion = 1
)

// language=SQL
const createSnapshotsSQL = `CREATE TABLE IF NOT EXISTS snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	proposal_id TEXT NOT NULL,
	ts TEXT NOT NULL,
	scene_json BLOB NOT NULL
)`

// language=SQL
const createMetaSQL = `CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// language=SQL
const insertSnapshotSQL = `INSERT INTO snapshots(proposal_id, ts, scene_json) VALUES (?, ?, ?)`

// language=SQL
const selectLatestSQL = `SELECT ts, scene_json FROM snapshots WHERE proposal_id = ? ORDER BY id DESC LIMIT 1`

// language=SQL
const pruneSQL = `DELETE FROM snapshots WHERE proposal_id = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE proposal_id = ? ORDER BY id DESC LIMIT ?
)`

// Journal is a handle to the per-user recovery database.
type Journal struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Open creates or opens the journal database under dir, enabling WAL
// and making sure the schema exists.
func Open(dir string) (*Journal, error) {
	l := applog.WithComponent("store")
	if dir == "" {
		return nil, errors.New("journal dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	path := filepath.Join(dir, JournalFileName)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	for _, stmt := range []string{createMetaSQL, createSnapshotsSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('schema_version', ?) ON CONFLICT(key) DO NOTHING`,
		fmt.Sprint(schemaVersion)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("record schema version: %w", err)
	}
	l.Debug("journal opened", slog.String("path", path))
	return &Journal{db: db, path: path, log: l}, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string { return j.path }

// Close releases the database handle.
func (j *Journal) Close() error { return j.db.Close() }

// Snapshot stores the scene for a proposal and prunes old entries so at
// most MaxSnapshotsPerProposal remain.
func (j *Journal) Snapshot(ctx context.Context, proposalID string, scene domain.Scene) error {
	if proposalID == "" {
		return errors.New("proposal id is required")
	}
	blob, err := json.Marshal(scene)
	if err != nil {
		return fmt.Errorf("marshal scene: %w", err)
	}
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := j.db.ExecContext(ctx, insertSnapshotSQL, proposalID, ts, blob); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := j.Prune(ctx, proposalID, MaxSnapshotsPerProposal); err != nil {
		// A failed prune only wastes space; the snapshot itself landed.
		j.log.Warn("snapshot prune failed", slog.Any("err", err))
	}
	return nil
}

// Latest returns the most recent snapshot for a proposal, or ok=false
// when none exists.
func (j *Journal) Latest(ctx context.Context, proposalID string) (scene domain.Scene, ts time.Time, ok bool, err error) {
	var tsStr string
	var blob []byte
	err = j.db.QueryRowContext(ctx, selectLatestSQL, proposalID).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Scene{}, time.Time{}, false, nil
	}
	if err != nil {
		return domain.Scene{}, time.Time{}, false, fmt.Errorf("select snapshot: %w", err)
	}
	if err := json.Unmarshal(blob, &scene); err != nil {
		return domain.Scene{}, time.Time{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	ts, _ = time.Parse(time.RFC3339Nano, tsStr)
	return scene, ts, true, nil
}

// Prune keeps at most keep snapshots for the proposal and deletes the
// rest, returning how many rows went away.
func (j *Journal) Prune(ctx context.Context, proposalID string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := j.db.ExecContext(ctx, pruneSQL, proposalID, proposalID, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
