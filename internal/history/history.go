/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history implements a bounded linear undo/redo log over scene
// snapshots. Entries are whole object-set snapshots, not diffs; undo and
// redo are cursor moves that hand back an already materialized snapshot
// for the scene to adopt wholesale.
package history

import (
	"sync"

	"citysketch/internal/domain"
)

// DefaultMaxEntries caps the log depth; the oldest entry is evicted
// when a commit would exceed it.
const DefaultMaxEntries = 50

// Config controls depth capping.
type Config struct {
	// MaxEntries limits the number of snapshots kept (0 means DefaultMaxEntries).
	MaxEntries int
}

// Log is a linear, singly-branching history: committing after undos
// discards the forward branch. The cursor always points at the entry
// matching the live scene. It is safe for concurrent use.
type Log struct {
	cfg Config

	mu      sync.Mutex
	entries [][]domain.PlacedInstance
	cursor  int
}

// NewLog creates a history seeded with a single empty baseline entry,
// so the first undo of a fresh session has nowhere to go.
func NewLog(cfg Config) *Log {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	l := &Log{cfg: cfg}
	l.entries = [][]domain.PlacedInstance{nil}
	return l
}

// Seed resets the log to a single baseline entry. Used after loading
// server state so undo cannot erase below what the server holds.
func (l *Log) Seed(objects []domain.PlacedInstance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = [][]domain.PlacedInstance{objects}
	l.cursor = 0
}

// Commit records a new snapshot: any redo branch past the cursor is
// discarded, the snapshot is appended, and the cursor advances to it.
// If the log exceeds its cap the oldest entry is evicted and the cursor
// re-clamped so it still points at the same logical entry.
func (l *Log) Commit(objects []domain.PlacedInstance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries[:l.cursor+1], objects)
	l.cursor = len(l.entries) - 1
	if len(l.entries) > l.cfg.MaxEntries {
		over := len(l.entries) - l.cfg.MaxEntries
		l.entries = append([][]domain.PlacedInstance{}, l.entries[over:]...)
		l.cursor -= over
		if l.cursor < 0 {
			l.cursor = 0
		}
	}
}

// Undo steps the cursor back and returns the snapshot now under it.
// At the start of history it is a no-op and reports false.
func (l *Log) Undo() ([]domain.PlacedInstance, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cursor == 0 {
		return nil, false
	}
	l.cursor--
	return l.entries[l.cursor], true
}

// Redo steps the cursor forward and returns the snapshot now under it.
// At the tail it is a no-op and reports false.
func (l *Log) Redo() ([]domain.PlacedInstance, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cursor >= len(l.entries)-1 {
		return nil, false
	}
	l.cursor++
	return l.entries[l.cursor], true
}

// CanUndo reports whether an undo would change anything.
func (l *Log) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor > 0
}

// CanRedo reports whether a redo would change anything.
func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor < len(l.entries)-1
}

// Stats returns current sizes for diagnostics.
func (l *Log) Stats() (entries, cursor int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries), l.cursor
}
