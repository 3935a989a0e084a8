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
	"log/slog"
	"sync"
	"time"

	"citysketch/internal/domain"
	"citysketch/internal/editor"
	applog "citysketch/internal/log"
	"citysketch/internal/store"
)

// DefaultAutosaveDelay is the quiet period after the last mutation
// before an automatic save fires.
const DefaultAutosaveDelay = 30 * time.Second

// SaveState is the derived persistence status shown to the user. It is
// never persisted itself.
type SaveState struct {
	IsLoading         bool
	IsSaving          bool
	HasUnsavedChanges bool
	LastSavedAt       time.Time
}

// Store is the remote sandbox endpoint the controller talks to.
type Store interface {
	LoadSandbox(ctx context.Context, proposalID string) (*LoadResult, error)
	SaveSandbox(ctx context.Context, proposalID string, scene domain.Scene) error
}

// Controller observes scene mutations and decides when to synchronize
// with the remote store. Saves are single-flight: a request arriving
// while one is outstanding is dropped, never queued; the next
// dirty-triggered timer or explicit save catches up.
type Controller struct {
	log     *slog.Logger
	remote  Store
	journal *store.Journal // optional local pre-flight snapshot
	session *editor.Session
	id      string

	delay   time.Duration
	now     func() time.Time
	onError func(stage string, err error)

	mu     sync.Mutex
	st     SaveState
	seq    uint64 // bumped per mutation; guards the dirty flag across an in-flight save
	timer  *time.Timer
	closed bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithAutosaveDelay overrides the debounce window (tests use millis).
func WithAutosaveDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.delay = d }
}

// WithJournal enables local pre-flight snapshots in the recovery store.
func WithJournal(j *store.Journal) ControllerOption {
	return func(c *Controller) { c.journal = j }
}

// WithErrorHandler installs the hook surfacing load/save failures as a
// dismissible message. Failures never make the editor unusable.
func WithErrorHandler(fn func(stage string, err error)) ControllerOption {
	return func(c *Controller) { c.onError = fn }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// NewController wires a controller to a session. From this point on
// every committed mutation marks the session dirty and (re)arms the
// autosave timer.
func NewController(remote Store, session *editor.Session, proposalID string, opts ...ControllerOption) *Controller {
	c := &Controller{
		log:     applog.WithComponent("persist"),
		remote:  remote,
		session: session,
		id:      proposalID,
		delay:   DefaultAutosaveDelay,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	session.OnMutate(c.markDirty)
	return c
}

// State returns a copy of the current save state.
func (c *Controller) State() SaveState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// Load fetches the proposal's stored scene once, on editor mount. A
// stored scene replaces the in-memory one wholesale and re-seeds the
// history baseline; a missing one leaves the fresh sandbox empty and
// clean. Load failures are reported and the editor proceeds empty.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.st.IsLoading = true
	c.mu.Unlock()

	res, err := c.remote.LoadSandbox(ctx, c.id)

	c.mu.Lock()
	c.st.IsLoading = false
	if err != nil {
		c.mu.Unlock()
		c.report("load", err)
		return err
	}
	if res.Exists {
		c.st.LastSavedAt = res.CreatedAt
	}
	c.st.HasUnsavedChanges = false
	c.mu.Unlock()

	if res.Exists {
		c.session.AdoptRemote(res.Scene)
	}
	c.log.Info("sandbox loaded",
		slog.String("proposal", c.id),
		slog.Bool("exists", res.Exists),
		slog.Int("objects", len(res.Scene.Objects)),
	)
	return nil
}

// Save serializes the scene and pushes it to the remote store. While a
// save is in flight further requests are dropped. On success the scene
// is clean again unless it was mutated while the request was
// outstanding; on failure it stays dirty so a retry can catch up.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.st.IsSaving {
		c.mu.Unlock()
		c.log.Debug("save suppressed, one already in flight", slog.String("proposal", c.id))
		return nil
	}
	c.st.IsSaving = true
	savedSeq := c.seq
	c.stopTimerLocked()
	c.mu.Unlock()

	scene := c.session.SceneSnapshot()
	if c.journal != nil {
		// Best effort: the network save proceeds even if the local
		// journal is broken.
		if err := c.journal.Snapshot(ctx, c.id, scene); err != nil {
			c.log.Warn("journal snapshot failed", slog.Any("err", err))
		}
	}

	err := c.remote.SaveSandbox(ctx, c.id, scene)

	c.mu.Lock()
	c.st.IsSaving = false
	if err == nil {
		c.st.LastSavedAt = c.now()
		c.st.HasUnsavedChanges = c.seq != savedSeq
	}
	stillDirty := c.st.HasUnsavedChanges
	if stillDirty && !c.closed {
		c.armTimerLocked()
	}
	c.mu.Unlock()

	if err != nil {
		c.report("save", err)
		return err
	}
	c.log.Info("sandbox saved", slog.String("proposal", c.id), slog.Int("objects", len(scene.Objects)))
	return nil
}

// markDirty runs after every committed mutation.
func (c *Controller) markDirty() {
	c.mu.Lock()
	c.seq++
	c.st.HasUnsavedChanges = true
	if !c.st.IsSaving && !c.closed {
		c.armTimerLocked()
	}
	c.mu.Unlock()
}

// armTimerLocked (re)starts the debounce window; each call supersedes
// the previous deadline.
func (c *Controller) armTimerLocked() {
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.delay, c.autosave)
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) autosave() {
	c.mu.Lock()
	dirty := c.st.HasUnsavedChanges
	closed := c.closed
	c.mu.Unlock()
	if !dirty || closed {
		return
	}
	c.log.Debug("autosave triggered", slog.String("proposal", c.id))
	// Error reporting already happened inside Save.
	_ = c.Save(context.Background())
}

// ConfirmDiscard implements the unload guard. With no unsaved changes
// it allows the navigation outright; otherwise it asks, and a
// confirmation discards the changes (no implicit flush-on-exit).
func (c *Controller) ConfirmDiscard(prompt func() bool) bool {
	c.mu.Lock()
	dirty := c.st.HasUnsavedChanges
	c.mu.Unlock()
	if !dirty {
		return true
	}
	if prompt == nil || !prompt() {
		return false
	}
	c.Close()
	return true
}

// Close stops the autosave timer. In-flight saves are not canceled.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()
}

func (c *Controller) report(stage string, err error) {
	c.log.Error(stage+" failed", slog.String("proposal", c.id), slog.Any("err", err))
	if c.onError != nil {
		c.onError(stage, err)
	}
}
