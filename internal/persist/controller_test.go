/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"citysketch/internal/catalog"
	"citysketch/internal/domain"
	"citysketch/internal/editor"
)

type fakeStore struct {
	mu        sync.Mutex
	loadRes   *LoadResult
	loadErr   error
	saveErr   error
	saveDelay time.Duration
	saveHook  func() // runs inside SaveSandbox, before the delay
	saveCount int
	lastSaved domain.Scene
}

func (f *fakeStore) LoadSandbox(_ context.Context, _ string) (*LoadResult, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.loadRes != nil {
		return f.loadRes, nil
	}
	return &LoadResult{}, nil
}

func (f *fakeStore) SaveSandbox(_ context.Context, _ string, scene domain.Scene) error {
	f.mu.Lock()
	f.saveCount++
	f.lastSaved = scene
	hook := f.saveHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if f.saveDelay > 0 {
		time.Sleep(f.saveDelay)
	}
	return f.saveErr
}

func (f *fakeStore) saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveCount
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func newControllerFixture(t *testing.T, remote Store, opts ...ControllerOption) (*editor.Session, *Controller) {
	t.Helper()
	s := editor.NewSession(defaultCatalog(t))
	c := NewController(remote, s, "prop-1", opts...)
	t.Cleanup(c.Close)
	return s, c
}

func placeOne(t *testing.T, s *editor.Session) domain.PlacedInstance {
	t.Helper()
	if err := s.StartPlacing("tree.jacaranda"); err != nil {
		t.Fatalf("StartPlacing: %v", err)
	}
	inst, ok := s.PointerClick(domain.Vec3{X: -58.46, Y: -34.545})
	if !ok {
		t.Fatalf("placement click did not place")
	}
	s.CancelPlacing()
	return inst
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLoadAdoptsStoredScene(t *testing.T) {
	savedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	remote := &fakeStore{loadRes: &LoadResult{
		Exists: true,
		Scene: domain.Scene{Objects: []domain.PlacedInstance{{
			ID: "a", AssetID: "tree.tipa",
			Position: domain.Vec3{X: 1, Y: 2},
			Scale:    domain.Vec3{X: 1, Y: 1, Z: 1},
		}}},
		CreatedAt: savedAt,
	}}
	s, c := newControllerFixture(t, remote)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(s.Objects()); got != 1 {
		t.Fatalf("expected adopted scene with 1 object, got %d", got)
	}
	st := c.State()
	if st.HasUnsavedChanges || st.IsLoading {
		t.Fatalf("freshly loaded scene must be clean: %+v", st)
	}
	if !st.LastSavedAt.Equal(savedAt) {
		t.Fatalf("LastSavedAt = %v, want %v", st.LastSavedAt, savedAt)
	}
	if s.CanUndo() {
		t.Fatalf("adopted scene must be the history baseline")
	}
}

func TestLoadMissingLeavesSandboxEmptyAndClean(t *testing.T) {
	s, c := newControllerFixture(t, &fakeStore{})
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Objects()) != 0 {
		t.Fatalf("missing sandbox must start empty")
	}
	st := c.State()
	if st.HasUnsavedChanges || !st.LastSavedAt.IsZero() {
		t.Fatalf("missing sandbox must be clean with no save timestamp: %+v", st)
	}
}

func TestLoadFailureReportsAndEditorProceeds(t *testing.T) {
	remote := &fakeStore{loadErr: errors.New("boom")}
	var stage string
	s, c := newControllerFixture(t, remote,
		WithErrorHandler(func(st string, _ error) { stage = st }))
	if err := c.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if stage != "load" {
		t.Fatalf("error handler stage = %q, want load", stage)
	}
	if c.State().IsLoading {
		t.Fatalf("IsLoading must reset after a failed load")
	}
	// The editor stays usable on an empty scene.
	placeOne(t, s)
	if len(s.Objects()) != 1 {
		t.Fatalf("editing after a failed load must work")
	}
}

func TestMutationMarksDirtyAndSaveClears(t *testing.T) {
	remote := &fakeStore{}
	s, c := newControllerFixture(t, remote)
	if c.State().HasUnsavedChanges {
		t.Fatalf("new session must start clean")
	}
	placeOne(t, s)
	if !c.State().HasUnsavedChanges {
		t.Fatalf("placement must mark the scene dirty")
	}
	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	st := c.State()
	if st.HasUnsavedChanges || st.IsSaving {
		t.Fatalf("successful save must leave a clean scene: %+v", st)
	}
	if st.LastSavedAt.IsZero() {
		t.Fatalf("LastSavedAt must be set after a save")
	}
	if remote.saves() != 1 || len(remote.lastSaved.Objects) != 1 {
		t.Fatalf("remote should have received the scene exactly once")
	}
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	remote := &fakeStore{saveErr: errors.New("503")}
	var stage string
	s, c := newControllerFixture(t, remote,
		WithErrorHandler(func(st string, _ error) { stage = st }))
	placeOne(t, s)
	if err := c.Save(context.Background()); err == nil {
		t.Fatalf("expected save error")
	}
	if stage != "save" {
		t.Fatalf("error handler stage = %q, want save", stage)
	}
	if !c.State().HasUnsavedChanges {
		t.Fatalf("failed save must keep the scene dirty for a retry")
	}

	remote.saveErr = nil
	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("retry Save: %v", err)
	}
	if c.State().HasUnsavedChanges {
		t.Fatalf("retry must clear the dirty flag")
	}
}

func TestConcurrentSaveIsSuppressed(t *testing.T) {
	remote := &fakeStore{saveDelay: 150 * time.Millisecond}
	s, c := newControllerFixture(t, remote)
	placeOne(t, s)

	done := make(chan error, 1)
	go func() { done <- c.Save(context.Background()) }()
	waitFor(t, func() bool { return c.State().IsSaving }, "first save to start")

	// The second request is dropped, not queued.
	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("suppressed save must not error: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("first save: %v", err)
	}
	if got := remote.saves(); got != 1 {
		t.Fatalf("remote saw %d saves, want 1", got)
	}
}

func TestMutationDuringSaveStaysDirty(t *testing.T) {
	remote := &fakeStore{}
	var s *editor.Session
	remote.saveHook = func() { placeOne(t, s) }
	s, c := newControllerFixture(t, remote)
	placeOne(t, s)

	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !c.State().HasUnsavedChanges {
		t.Fatalf("a mutation racing the in-flight save must survive as dirty")
	}
}

func TestAutosaveFiresAfterQuietPeriod(t *testing.T) {
	remote := &fakeStore{}
	s, c := newControllerFixture(t, remote, WithAutosaveDelay(30*time.Millisecond))
	placeOne(t, s)
	waitFor(t, func() bool { return remote.saves() == 1 }, "autosave")
	waitFor(t, func() bool { return !c.State().HasUnsavedChanges }, "clean state after autosave")
}

func TestAutosaveDebounceRestartsPerMutation(t *testing.T) {
	remote := &fakeStore{}
	s, c := newControllerFixture(t, remote, WithAutosaveDelay(80*time.Millisecond))
	placeOne(t, s)
	// Keep mutating inside the window; no save may fire while edits
	// keep arriving.
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		if n := remote.saves(); n != 0 {
			t.Fatalf("save fired during active editing (saves=%d)", n)
		}
		placeOne(t, s)
	}
	waitFor(t, func() bool { return remote.saves() == 1 }, "final autosave")
	_ = c
}

func TestCloseStopsAutosave(t *testing.T) {
	remote := &fakeStore{}
	s, c := newControllerFixture(t, remote, WithAutosaveDelay(30*time.Millisecond))
	placeOne(t, s)
	c.Close()
	time.Sleep(100 * time.Millisecond)
	if n := remote.saves(); n != 0 {
		t.Fatalf("closed controller must not autosave (saves=%d)", n)
	}
}

func TestConfirmDiscard(t *testing.T) {
	remote := &fakeStore{}
	s, c := newControllerFixture(t, remote)

	if !c.ConfirmDiscard(func() bool { t.Fatal("clean exit must not prompt"); return false }) {
		t.Fatalf("clean scene must allow navigation without prompting")
	}

	placeOne(t, s)
	if c.ConfirmDiscard(func() bool { return false }) {
		t.Fatalf("declining the prompt must block navigation")
	}
	if c.ConfirmDiscard(nil) {
		t.Fatalf("dirty scene without a prompt must block navigation")
	}
	if !c.ConfirmDiscard(func() bool { return true }) {
		t.Fatalf("confirming the prompt must allow navigation")
	}
	// Discard means discard: nothing was flushed on the way out.
	if remote.saves() != 0 {
		t.Fatalf("discard must not save")
	}
}
