/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"log/slog"

	"citysketch/internal/domain"
	"citysketch/internal/geo"
)

// Placement controller: Idle <-> Placing(asset). While placing, pointer
// moves track a transient ghost position that previews the next
// placement. The ghost is never part of the scene model and never
// snapshotted.

// Mode returns the placement state and, while placing, the armed asset.
func (s *Session) Mode() (Mode, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode, s.placingAsset
}

// StartPlacing arms the given asset for placement. Unknown assets are
// rejected so a stale palette cannot poison the scene.
func (s *Session) StartPlacing(assetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.catalog.Get(assetID); !ok {
		return fmt.Errorf("unknown asset %q", assetID)
	}
	s.mode = ModePlacing
	s.placingAsset = assetID
	s.ghostSet = false
	return nil
}

// TogglePlacing is the palette click: arming a new asset switches to
// it, clicking the armed asset again disarms placement.
func (s *Session) TogglePlacing(assetID string) error {
	s.mu.Lock()
	if s.mode == ModePlacing && s.placingAsset == assetID {
		s.cancelPlacingLocked()
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.StartPlacing(assetID)
}

// CancelPlacing leaves placement mode and clears the ghost; a no-op
// when already idle.
func (s *Session) CancelPlacing() {
	s.mu.Lock()
	s.cancelPlacingLocked()
	s.mu.Unlock()
}

func (s *Session) cancelPlacingLocked() {
	s.mode = ModeIdle
	s.placingAsset = ""
	s.ghostSet = false
}

// PointerMove updates the ghost preview while placing; idle moves are
// ignored.
func (s *Session) PointerMove(at domain.Vec3) {
	s.mu.Lock()
	if s.mode == ModePlacing {
		s.ghost = domain.Vec3{X: at.X, Y: at.Y}
		s.ghostSet = true
	}
	s.mu.Unlock()
}

// PointerLeave clears the ghost when the pointer leaves the scene
// surface.
func (s *Session) PointerLeave() {
	s.mu.Lock()
	s.ghostSet = false
	s.mu.Unlock()
}

// Ghost returns the transient preview position, if one is showing.
func (s *Session) Ghost() (domain.Vec3, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ghost, s.ghostSet
}

// PointerClick handles a click at a world coordinate. While placing it
// synthesizes a new instance of the armed asset at the clicked point,
// commits a history entry, clears the ghost and stays in placement mode
// so the same asset can be stamped repeatedly. While idle it hit-tests
// the scene and updates the selection instead.
// The placed instance (if any) is returned for the caller to highlight.
func (s *Session) PointerClick(at domain.Vec3) (domain.PlacedInstance, bool) {
	s.mu.Lock()
	if s.mode != ModePlacing {
		// Idle: the click belongs to selection.
		if id, ok := geo.NearestInstance(s.scene.Objects, at, s.pickRadius); ok {
			s.activeID = id
		} else {
			s.activeID = ""
		}
		s.mu.Unlock()
		return domain.PlacedInstance{}, false
	}

	inst, err := s.newInstanceLocked(s.placingAsset, at)
	if err != nil {
		// The armed asset vanished from the catalog; drop out of
		// placement mode rather than failing every subsequent click.
		s.cancelPlacingLocked()
		s.mu.Unlock()
		s.log.Warn("placement aborted", slog.Any("err", err))
		return domain.PlacedInstance{}, false
	}
	s.scene.AddInstance(inst)
	s.hist.Commit(s.scene.SnapshotObjects())
	s.ghostSet = false
	s.mu.Unlock()

	s.log.Debug("instance placed",
		slog.String("id", inst.ID),
		slog.String("asset", inst.AssetID),
		slog.Float64("lng", inst.Position.X),
		slog.Float64("lat", inst.Position.Y),
	)
	s.notifyMutate()
	return inst, true
}
