/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geo converts between WGS84 longitude/latitude (the scene's
// native coordinates) and Web Mercator meters (EPSG:3857), which is the
// plane we hit-test and render in.
package geo

import (
	"math"

	"github.com/wroge/wgs84"

	"citysketch/internal/domain"
)

// DefaultPickRadiusMeters is how close (in ground meters) a click must
// land to an instance for it to count as a hit.
const DefaultPickRadiusMeters = 8.0

var (
	toMercator   = wgs84.EPSG().Transform(4326, 3857)
	fromMercator = wgs84.EPSG().Transform(3857, 4326)
)

// ToWebMercator projects a longitude/latitude pair to EPSG:3857 meters.
func ToWebMercator(lng, lat float64) (x, y float64) {
	x, y, _ = toMercator(lng, lat, 0)
	return x, y
}

// ToWGS84 is the inverse projection, EPSG:3857 meters back to
// longitude/latitude.
func ToWGS84(x, y float64) (lng, lat float64) {
	lng, lat, _ = fromMercator(x, y, 0)
	return lng, lat
}

// GroundDistanceMeters returns the approximate ground distance between
// two positions. Distances measured on the Mercator plane are inflated
// by 1/cos(lat); scaling back by the cosine of the mean latitude is
// accurate to well under a percent at scene scale.
func GroundDistanceMeters(a, b domain.Vec3) float64 {
	ax, ay := ToWebMercator(a.X, a.Y)
	bx, by := ToWebMercator(b.X, b.Y)
	d := math.Hypot(bx-ax, by-ay)
	meanLat := (a.Y + b.Y) / 2 * math.Pi / 180
	return d * math.Cos(meanLat)
}

// NearestInstance returns the id of the instance closest to the given
// position within maxMeters, or false if none is in range. Ties go to
// the earlier instance in scene order.
func NearestInstance(objects []domain.PlacedInstance, at domain.Vec3, maxMeters float64) (string, bool) {
	bestID := ""
	bestDist := 0.0
	for _, o := range objects {
		d := GroundDistanceMeters(o.Position, at)
		if d > maxMeters {
			continue
		}
		if bestID == "" || d < bestDist {
			bestID = o.ID
			bestDist = d
		}
	}
	return bestID, bestID != ""
}
