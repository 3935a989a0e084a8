//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"citysketch/internal/domain"
	"citysketch/internal/editor"
	"citysketch/internal/geo"
)

// planCanvas is the top-down scene view. The viewport is a movable
// center in Web Mercator meters plus a meters-per-pixel zoom; screen y
// grows down while Mercator north grows up, hence the sign flips.
type planCanvas struct {
	widget.BaseWidget

	session *editor.Session

	centerX, centerY float64 // EPSG:3857 meters
	metersPerPx      float64

	// onChange runs after any interaction that may have mutated the
	// session, so the shell can refresh status and inspector.
	onChange func()
}

func newPlanCanvas(session *editor.Session, centerLng, centerLat float64) *planCanvas {
	x, y := geo.ToWebMercator(centerLng, centerLat)
	c := &planCanvas{session: session, centerX: x, centerY: y, metersPerPx: 0.5}
	c.ExtendBaseWidget(c)
	return c
}

func (c *planCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

func (c *planCanvas) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

// worldAt converts a widget-local position to scene coordinates.
func (c *planCanvas) worldAt(p fyne.Position) domain.Vec3 {
	sz := c.Size()
	mx := c.centerX + (float64(p.X)-float64(sz.Width)/2)*c.metersPerPx
	my := c.centerY - (float64(p.Y)-float64(sz.Height)/2)*c.metersPerPx
	lng, lat := geo.ToWGS84(mx, my)
	return domain.Vec3{X: lng, Y: lat}
}

// screenAt is the inverse of worldAt for the current viewport.
func (c *planCanvas) screenAt(pos domain.Vec3) fyne.Position {
	sz := c.Size()
	mx, my := geo.ToWebMercator(pos.X, pos.Y)
	x := float64(sz.Width)/2 + (mx-c.centerX)/c.metersPerPx
	y := float64(sz.Height)/2 - (my-c.centerY)/c.metersPerPx
	return fyne.NewPos(float32(x), float32(y))
}

func (c *planCanvas) notify() {
	c.Refresh()
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *planCanvas) Tapped(e *fyne.PointEvent) {
	c.session.PointerClick(c.worldAt(e.Position))
	c.notify()
}

func (c *planCanvas) TappedSecondary(*fyne.PointEvent) {
	c.session.CancelPlacing()
	c.notify()
}

func (c *planCanvas) MouseIn(*fyne.PointEvent) {}

func (c *planCanvas) MouseMoved(e *fyne.PointEvent) {
	c.session.PointerMove(c.worldAt(e.Position))
	c.Refresh()
}

func (c *planCanvas) MouseOut() {
	c.session.PointerLeave()
	c.Refresh()
}

func (c *planCanvas) Dragged(e *fyne.DragEvent) {
	c.centerX -= float64(e.Dragged.DX) * c.metersPerPx
	c.centerY += float64(e.Dragged.DY) * c.metersPerPx
	c.Refresh()
}

func (c *planCanvas) DragEnd() {}

func (c *planCanvas) Scrolled(e *fyne.ScrollEvent) {
	if e.Scrolled.DY > 0 {
		c.metersPerPx /= 1.2
	} else if e.Scrolled.DY < 0 {
		c.metersPerPx *= 1.2
	}
	if c.metersPerPx < 0.02 {
		c.metersPerPx = 0.02
	}
	if c.metersPerPx > 50 {
		c.metersPerPx = 50
	}
	c.Refresh()
}

func (c *planCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{240, 240, 236, 255})
	return &planCanvasRenderer{c: c, bg: bg}
}

type planCanvasRenderer struct {
	c       *planCanvas
	bg      *canvas.Rectangle
	markers []fyne.CanvasObject
}

func (r *planCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.rebuild()
}

func (r *planCanvasRenderer) MinSize() fyne.Size { return r.c.MinSize() }

func (r *planCanvasRenderer) Refresh() {
	r.rebuild()
	canvas.Refresh(r.c)
}

func (r *planCanvasRenderer) Objects() []fyne.CanvasObject {
	return append([]fyne.CanvasObject{r.bg}, r.markers...)
}

func (r *planCanvasRenderer) Destroy() {}

// rebuild regenerates marker objects from the session. Cheap at
// sandbox scale; dozens of objects, not thousands.
func (r *planCanvasRenderer) rebuild() {
	r.markers = r.markers[:0]

	activeID, hasActive := r.c.session.ActiveID()
	for _, o := range r.c.session.Objects() {
		circ := canvas.NewCircle(markerFill(o.Color))
		circ.StrokeColor = color.RGBA{50, 50, 50, 255}
		circ.StrokeWidth = 1
		if hasActive && o.ID == activeID {
			circ.StrokeColor = color.RGBA{255, 120, 0, 255}
			circ.StrokeWidth = 3
		}
		placeMarker(circ, r.c, o.Position, markerRadius(o.Scale.X))
		r.markers = append(r.markers, circ)
	}

	if at, ok := r.c.session.Ghost(); ok {
		ghost := canvas.NewCircle(color.RGBA{120, 160, 255, 110})
		ghost.StrokeColor = color.RGBA{60, 90, 200, 200}
		ghost.StrokeWidth = 1
		placeMarker(ghost, r.c, at, markerRadius(1))
		r.markers = append(r.markers, ghost)
	}
}

func markerRadius(scale float64) float32 {
	r := float32(5 + scale*2)
	if r < 4 {
		r = 4
	}
	return r
}

func placeMarker(circ *canvas.Circle, c *planCanvas, at domain.Vec3, radius float32) {
	p := c.screenAt(at)
	circ.Position1 = fyne.NewPos(p.X-radius, p.Y-radius)
	circ.Position2 = fyne.NewPos(p.X+radius, p.Y+radius)
	circ.Resize(fyne.NewSize(2*radius, 2*radius))
	circ.Move(circ.Position1)
}

func markerFill(hex string) color.Color {
	var r, g, b uint8
	if len(hex) == 7 && hex[0] == '#' {
		if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b); err == nil {
			return color.RGBA{R: r, G: g, B: b, A: 255}
		}
	}
	return color.RGBA{110, 110, 110, 255}
}
