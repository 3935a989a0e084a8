/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package persist

import "citysketch/internal/domain"

// Wire shapes for the sandbox API. The wire format is deliberately
// narrower than the in-memory model: it carries only the vertical-axis
// rotation and a uniform scale plus height. Decoding substitutes zero
// for the dropped rotation axes and rebuilds scale as (s, s, height).
// This lossy round-trip is part of the stored format; do not "fix" it
// here without a coordinated server change.

// WireObject is one serialized placed instance.
type WireObject struct {
	ID       string     `json:"id"`
	AssetID  string     `json:"assetId"`
	Position [3]float64 `json:"position"` // [lng, lat, alt]
	Rotation float64    `json:"rotation"` // vertical-axis degrees only
	Scale    float64    `json:"scale"`    // uniform footprint scale
	Color    string     `json:"color"`
	Height   float64    `json:"height"` // vertical scale
}

// WireScene is the serialized aggregate.
type WireScene struct {
	Objects  []WireObject   `json:"objects"`
	Camera   map[string]any `json:"camera,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// EncodeScene flattens the in-memory scene to the wire shape.
func EncodeScene(s domain.Scene) WireScene {
	out := WireScene{
		Objects:  make([]WireObject, 0, len(s.Objects)),
		Camera:   s.Camera,
		Settings: s.Settings,
	}
	for _, o := range s.Objects {
		out.Objects = append(out.Objects, WireObject{
			ID:       o.ID,
			AssetID:  o.AssetID,
			Position: [3]float64{o.Position.X, o.Position.Y, o.Position.Z},
			Rotation: o.Rotation.Z,
			Scale:    o.Scale.X,
			Color:    o.Color,
			Height:   o.Scale.Z,
		})
	}
	return out
}

// DecodeScene rebuilds the in-memory scene from the wire shape.
// Missing scale components default to 1 so instances from older
// payloads stay valid.
func DecodeScene(w WireScene) domain.Scene {
	s := domain.Scene{
		Objects:  make([]domain.PlacedInstance, 0, len(w.Objects)),
		Camera:   w.Camera,
		Settings: w.Settings,
	}
	for _, o := range w.Objects {
		scale := o.Scale
		if scale <= 0 {
			scale = 1
		}
		height := o.Height
		if height <= 0 {
			height = 1
		}
		s.Objects = append(s.Objects, domain.PlacedInstance{
			ID:       o.ID,
			AssetID:  o.AssetID,
			Position: domain.Vec3{X: o.Position[0], Y: o.Position[1], Z: o.Position[2]},
			Rotation: domain.Vec3{Z: o.Rotation},
			Scale:    domain.Vec3{X: scale, Y: scale, Z: height},
			Color:    o.Color,
		})
	}
	return s
}
