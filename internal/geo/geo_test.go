/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geo

import (
	"math"
	"testing"

	"citysketch/internal/domain"
)

func TestToWebMercatorOrigin(t *testing.T) {
	x, y := ToWebMercator(0, 0)
	if math.Abs(x) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Fatalf("origin should project to (0,0), got (%f,%f)", x, y)
	}
}

func TestToWebMercatorKnownPoint(t *testing.T) {
	// 1 degree of longitude on the equator is ~111.32 km in EPSG:3857.
	x, _ := ToWebMercator(1, 0)
	if math.Abs(x-111319.49) > 1 {
		t.Fatalf("unexpected x for lng=1: %f", x)
	}
}

func TestProjectionRoundTrip(t *testing.T) {
	lng, lat := -58.46, -34.545
	x, y := ToWebMercator(lng, lat)
	gotLng, gotLat := ToWGS84(x, y)
	if math.Abs(gotLng-lng) > 1e-7 || math.Abs(gotLat-lat) > 1e-7 {
		t.Fatalf("round trip drifted: (%f,%f) -> (%f,%f)", lng, lat, gotLng, gotLat)
	}
}

func TestGroundDistanceAtHighLatitude(t *testing.T) {
	// ~0.001 degree of latitude is ~111 m of ground distance anywhere,
	// including at Buenos Aires latitude where raw Mercator units are
	// inflated by ~21%.
	a := domain.Vec3{X: -58.46, Y: -34.545}
	b := domain.Vec3{X: -58.46, Y: -34.546}
	d := GroundDistanceMeters(a, b)
	if d < 100 || d > 125 {
		t.Fatalf("expected ~111m, got %f", d)
	}
}

func TestNearestInstance(t *testing.T) {
	objects := []domain.PlacedInstance{
		{ID: "far", Position: domain.Vec3{X: -58.47, Y: -34.545}},
		{ID: "near", Position: domain.Vec3{X: -58.46001, Y: -34.545}},
	}
	at := domain.Vec3{X: -58.46, Y: -34.545}

	id, ok := NearestInstance(objects, at, DefaultPickRadiusMeters)
	if !ok || id != "near" {
		t.Fatalf("expected to pick 'near', got ok=%v id=%q", ok, id)
	}

	// Nothing within one meter of a point out in the river.
	if _, ok := NearestInstance(objects, domain.Vec3{X: -58.3, Y: -34.5}, 1); ok {
		t.Fatalf("expected no hit far away from all instances")
	}
}

func TestNearestInstanceEmptyScene(t *testing.T) {
	if _, ok := NearestInstance(nil, domain.Vec3{}, DefaultPickRadiusMeters); ok {
		t.Fatalf("empty scene can have no hit")
	}
}
