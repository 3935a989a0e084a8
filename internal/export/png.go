/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"citysketch/internal/catalog"
	"citysketch/internal/domain"
	"citysketch/internal/geo"
)

// PNGOptions controls the plan view render. Zero values get defaults.
type PNGOptions struct {
	Width    int  // output pixels, default 1024
	Height   int  // default 768
	MarginPx int  // default 48
	Labels   bool // draw asset names next to markers
}

// ExportPlanPNG renders a top-down plan of the scene: every object as a
// colored marker in Web Mercator space, fit to the image bounds.
func ExportPlanPNG(scene domain.Scene, cat *catalog.Catalog, outPath string, opt PNGOptions) error {
	if len(scene.Objects) == 0 {
		return fmt.Errorf("scene has no objects to render")
	}
	w, h, margin := opt.Width, opt.Height, opt.MarginPx
	if w <= 0 {
		w = 1024
	}
	if h <= 0 {
		h = 768
	}
	if margin <= 0 {
		margin = 48
	}

	// Projected bounds of the scene.
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	type projected struct {
		obj  domain.PlacedInstance
		x, y float64
	}
	pts := make([]projected, 0, len(scene.Objects))
	for _, o := range scene.Objects {
		x, y := geo.ToWebMercator(o.Position.X, o.Position.Y)
		pts = append(pts, projected{obj: o, x: x, y: y})
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	spanX := maxX - minX
	spanY := maxY - minY
	// A single object (or a perfectly collinear axis) still needs a
	// finite scale.
	if spanX < 1 {
		spanX = 1
	}
	if spanY < 1 {
		spanY = 1
	}
	scale := math.Min(float64(w-2*margin)/spanX, float64(h-2*margin)/spanY)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{250, 250, 248, 255}}, image.Point{}, draw.Src)

	for _, p := range pts {
		// y flips: Mercator north is up, image y grows down.
		px := margin + int(math.Round((p.x-minX)*scale))
		py := h - margin - int(math.Round((p.y-minY)*scale))
		col := markerColor(p.obj, cat)
		r := 4 + int(math.Round(p.obj.Scale.X))
		fillCircle(img, px, py, r, col)
		strokeCircle(img, px, py, r, color.RGBA{40, 40, 40, 255})
		if opt.Labels {
			name := p.obj.AssetID
			if a, ok := cat.Get(p.obj.AssetID); ok {
				name = a.Name
			}
			drawLabel(img, px+r+3, py+4, name)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// markerColor prefers the per-instance override, then the asset default.
func markerColor(o domain.PlacedInstance, cat *catalog.Catalog) color.RGBA {
	hex := o.Color
	if hex == "" {
		if a, ok := cat.Get(o.AssetID); ok {
			hex = a.Color
		}
	}
	if c, ok := parseHexColor(hex); ok {
		return c
	}
	return color.RGBA{100, 100, 100, 255}
}

func parseHexColor(s string) (color.RGBA, bool) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, false
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, true
}

func fillCircle(img *image.RGBA, cx, cy, r int, col color.RGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(cx+dx, cy+dy, col)
			}
		}
	}
}

func strokeCircle(img *image.RGBA, cx, cy, r int, col color.RGBA) {
	steps := 8 * (r + 1)
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		img.SetRGBA(cx+int(math.Round(float64(r)*math.Cos(a))), cy+int(math.Round(float64(r)*math.Sin(a))), col)
	}
}

func drawLabel(img *image.RGBA, x, y int, text string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{30, 30, 30, 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
