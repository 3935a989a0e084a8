/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor owns the interactive scene-editing state for one
// proposal: the scene model, the placement and selection controllers,
// and the undo/redo wiring. All ambient UI state (active selection,
// placement mode, ghost position) lives in explicit fields of the
// Session rather than scattered globals.
package editor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"citysketch/internal/catalog"
	"citysketch/internal/domain"
	"citysketch/internal/geo"
	"citysketch/internal/history"
	applog "citysketch/internal/log"
)

// Mode is the placement controller state.
type Mode int

const (
	// ModeIdle means clicks select existing instances.
	ModeIdle Mode = iota
	// ModePlacing means clicks create instances of the armed asset.
	ModePlacing
)

// Session is the editing engine for one open proposal. It is safe for
// concurrent use; the UI event loop and the autosave timer both touch it.
type Session struct {
	log     *slog.Logger
	catalog *catalog.Catalog

	mu    sync.Mutex
	scene domain.Scene
	hist  *history.Log

	// selection: at most one active instance
	activeID string

	// placement controller
	mode         Mode
	placingAsset string
	ghost        domain.Vec3
	ghostSet     bool

	// PickRadiusMeters is how far a click may land from an instance and
	// still select it.
	pickRadius float64

	onMutate func()
}

// Option configures a Session.
type Option func(*Session)

// WithHistoryDepth overrides the undo log cap.
func WithHistoryDepth(n int) Option {
	return func(s *Session) { s.hist = history.NewLog(history.Config{MaxEntries: n}) }
}

// WithPickRadius overrides the selection hit radius in ground meters.
func WithPickRadius(m float64) Option {
	return func(s *Session) { s.pickRadius = m }
}

// NewSession creates an empty editing session over the given catalog.
func NewSession(cat *catalog.Catalog, opts ...Option) *Session {
	s := &Session{
		log:        applog.WithComponent("editor"),
		catalog:    cat,
		hist:       history.NewLog(history.Config{}),
		pickRadius: geo.DefaultPickRadiusMeters,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnMutate registers the hook fired after every committed scene
// mutation (placement, deletion, undo/redo restore, metadata change).
// The persistence controller uses it for dirty tracking.
func (s *Session) OnMutate(fn func()) {
	s.mu.Lock()
	s.onMutate = fn
	s.mu.Unlock()
}

// notifyMutate must be called without s.mu held.
func (s *Session) notifyMutate() {
	s.mu.Lock()
	fn := s.onMutate
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Objects returns a snapshot of the placed instances in scene order.
func (s *Session) Objects() []domain.PlacedInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.SnapshotObjects()
}

// SceneSnapshot returns a copy of the full scene for serialization.
func (s *Session) SceneSnapshot() domain.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Scene{
		Objects:  s.scene.SnapshotObjects(),
		Camera:   s.scene.Camera,
		Settings: s.scene.Settings,
	}
}

// AdoptRemote replaces the scene wholesale with server state and
// re-seeds the history baseline so undo cannot erase loaded data.
// It does not mark the session dirty.
func (s *Session) AdoptRemote(scene domain.Scene) {
	s.mu.Lock()
	s.scene = domain.Scene{
		Objects:  append([]domain.PlacedInstance(nil), scene.Objects...),
		Camera:   scene.Camera,
		Settings: scene.Settings,
	}
	s.hist.Seed(s.scene.SnapshotObjects())
	s.activeID = ""
	s.ghostSet = false
	s.mu.Unlock()
	s.log.Info("adopted remote scene", slog.Int("objects", len(scene.Objects)))
}

// UpdateCamera stores a new opaque viewpoint snapshot. Camera changes
// are persisted but never snapshotted into history.
func (s *Session) UpdateCamera(camera map[string]any) {
	s.mu.Lock()
	s.scene.Camera = camera
	s.mu.Unlock()
	s.notifyMutate()
}

// Select marks the instance with the given id as active. Selecting an
// unknown id reports false and leaves the selection unchanged.
func (s *Session) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scene.Find(id); !ok {
		return false
	}
	s.activeID = id
	return true
}

// ClearSelection drops the active selection; a no-op if none is set.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.activeID = ""
	s.mu.Unlock()
}

// ActiveID returns the selected instance id, if any.
func (s *Session) ActiveID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID, s.activeID != ""
}

// Active returns the selected instance, if any.
func (s *Session) Active() (domain.PlacedInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == "" {
		return domain.PlacedInstance{}, false
	}
	return s.scene.Find(s.activeID)
}

// DeleteActive removes the active instance, commits a history entry
// and clears the selection. With nothing selected it is a silent no-op.
func (s *Session) DeleteActive() bool {
	s.mu.Lock()
	if s.activeID == "" {
		s.mu.Unlock()
		return false
	}
	id := s.activeID
	s.scene.RemoveInstance(id)
	s.activeID = ""
	s.hist.Commit(s.scene.SnapshotObjects())
	s.mu.Unlock()

	s.log.Debug("instance deleted", slog.String("id", id))
	s.notifyMutate()
	return true
}

// MoveActive repositions the selected instance. Parameter edits of
// existing instances are not snapshotted into history yet; only
// placement and deletion are undoable.
func (s *Session) MoveActive(to domain.Vec3) bool {
	return s.editActive(func(p *domain.PlacedInstance) { p.Position = to })
}

// SetActiveRotation sets the vertical-axis rotation in degrees.
func (s *Session) SetActiveRotation(deg float64) bool {
	return s.editActive(func(p *domain.PlacedInstance) { p.Rotation.Z = deg })
}

// SetActiveScale sets the uniform footprint scale and the height scale.
func (s *Session) SetActiveScale(uniform, height float64) bool {
	if uniform <= 0 || height <= 0 {
		return false
	}
	return s.editActive(func(p *domain.PlacedInstance) {
		p.Scale = domain.Vec3{X: uniform, Y: uniform, Z: height}
	})
}

func (s *Session) editActive(edit func(*domain.PlacedInstance)) bool {
	s.mu.Lock()
	if s.activeID == "" {
		s.mu.Unlock()
		return false
	}
	edited := false
	for i := range s.scene.Objects {
		if s.scene.Objects[i].ID == s.activeID {
			edit(&s.scene.Objects[i])
			edited = true
			break
		}
	}
	s.mu.Unlock()
	if edited {
		s.notifyMutate()
	}
	return edited
}

// Undo restores the previous history snapshot; a no-op at the baseline.
func (s *Session) Undo() bool {
	s.mu.Lock()
	objects, ok := s.hist.Undo()
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.scene.ReplaceAll(objects)
	s.dropStaleSelectionLocked()
	s.mu.Unlock()
	s.notifyMutate()
	return true
}

// Redo restores the next history snapshot; a no-op at the tail.
func (s *Session) Redo() bool {
	s.mu.Lock()
	objects, ok := s.hist.Redo()
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.scene.ReplaceAll(objects)
	s.dropStaleSelectionLocked()
	s.mu.Unlock()
	s.notifyMutate()
	return true
}

// dropStaleSelectionLocked clears the selection if the selected id no
// longer exists after a history restore.
func (s *Session) dropStaleSelectionLocked() {
	if s.activeID == "" {
		return
	}
	if _, ok := s.scene.Find(s.activeID); !ok {
		s.activeID = ""
	}
}

// CanUndo reports whether an undo would change the scene.
func (s *Session) CanUndo() bool { return s.hist.CanUndo() }

// CanRedo reports whether a redo would change the scene.
func (s *Session) CanRedo() bool { return s.hist.CanRedo() }

func (s *Session) newInstanceLocked(assetID string, at domain.Vec3) (domain.PlacedInstance, error) {
	a, ok := s.catalog.Get(assetID)
	if !ok {
		return domain.PlacedInstance{}, fmt.Errorf("unknown asset %q", assetID)
	}
	return domain.PlacedInstance{
		ID:       uuid.NewString(),
		AssetID:  a.ID,
		Position: domain.Vec3{X: at.X, Y: at.Y, Z: 0},
		Rotation: domain.Vec3{},
		Scale:    domain.Vec3{X: a.DefaultScale, Y: a.DefaultScale, Z: a.DefaultHeight},
		Color:    a.Color,
	}, nil
}
