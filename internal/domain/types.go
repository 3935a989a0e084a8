/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for a CitySketch sandbox scene:
// the placed instances a user arranges on the map and the aggregate that
// is loaded and saved as a unit per proposal.

import (
	"errors"
	"fmt"
	"strings"
)

// Vec3 is a plain 3-component vector. For positions the components are
// longitude, latitude and altitude (degrees, degrees, meters); for
// rotations they are degrees per axis; for scales they are factors.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PlacedInstance is one object placed in the scene. The id is generated
// client-side at creation time and stays stable for the instance's
// lifetime. Color is denormalized from the asset at placement time so a
// scene renders without the catalog.
type PlacedInstance struct {
	ID       string `json:"id"`
	AssetID  string `json:"assetId"`
	Position Vec3   `json:"position"` // X=lng, Y=lat, Z=alt
	Rotation Vec3   `json:"rotation"` // degrees; only Z (vertical axis) is meaningful today
	Scale    Vec3   `json:"scale"`    // positive factors; uniform XY plus independent Z height
	Color    string `json:"color"`    // display color, e.g. "#4caf50"
}

// Validate reports whether the instance satisfies the model invariants:
// non-empty id and asset reference, strictly positive scale components.
func (p PlacedInstance) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("instance id is required")
	}
	if strings.TrimSpace(p.AssetID) == "" {
		return fmt.Errorf("instance %s: asset id is required", p.ID)
	}
	if p.Scale.X <= 0 || p.Scale.Y <= 0 || p.Scale.Z <= 0 {
		return fmt.Errorf("instance %s: scale must be positive, got (%g,%g,%g)", p.ID, p.Scale.X, p.Scale.Y, p.Scale.Z)
	}
	return nil
}

// Scene is the aggregate persisted and loaded as a unit. Objects keep
// insertion order; the order carries no meaning but must round-trip.
// Camera and Settings are opaque to the editor and pass through
// persistence untouched.
type Scene struct {
	Objects  []PlacedInstance `json:"objects"`
	Camera   map[string]any   `json:"camera,omitempty"`
	Settings map[string]any   `json:"settings,omitempty"`
}

// AddInstance appends an instance to the scene.
func (s *Scene) AddInstance(inst PlacedInstance) {
	s.Objects = append(s.Objects, inst)
}

// RemoveInstance deletes the instance with the given id, preserving the
// order of the remaining objects. Removing an unknown id is a no-op;
// deletions are idempotent.
func (s *Scene) RemoveInstance(id string) bool {
	for i, o := range s.Objects {
		if o.ID == id {
			s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceAll swaps the whole object collection. The slice is copied so
// the caller may keep mutating its own reference.
func (s *Scene) ReplaceAll(objects []PlacedInstance) {
	s.Objects = append([]PlacedInstance(nil), objects...)
}

// Find returns the instance with the given id, if present.
func (s *Scene) Find(id string) (PlacedInstance, bool) {
	for _, o := range s.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return PlacedInstance{}, false
}

// SnapshotObjects returns a copy of the object collection suitable for
// history entries. PlacedInstance holds only value types, so a shallow
// slice copy is a full snapshot.
func (s *Scene) SnapshotObjects() []PlacedInstance {
	return append([]PlacedInstance(nil), s.Objects...)
}
