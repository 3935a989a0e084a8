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

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"citysketch/internal/editor"
)

// inspector shows and edits the parameters of the selected instance.
// The sliders write straight into the session; these edits are live
// tweaks, not history snapshots.
type inspector struct {
	session  *editor.Session
	root     fyne.CanvasObject
	onChange func()

	title    *widget.Label
	rotation *widget.Slider
	scale    *widget.Slider
	height   *widget.Slider

	// updating suppresses slider callbacks while refresh() pushes
	// session state back into the widgets.
	updating bool
}

func newInspector(session *editor.Session) *inspector {
	ins := &inspector{
		session:  session,
		title:    widget.NewLabel("No selection"),
		rotation: widget.NewSlider(0, 360),
		scale:    widget.NewSlider(0.2, 5),
		height:   widget.NewSlider(0.2, 12),
	}
	ins.rotation.Step = 1
	ins.scale.Step = 0.1
	ins.height.Step = 0.1

	ins.rotation.OnChanged = func(v float64) {
		if ins.updating {
			return
		}
		if ins.session.SetActiveRotation(v) && ins.onChange != nil {
			ins.onChange()
		}
	}
	apply := func() {
		if ins.updating {
			return
		}
		if ins.session.SetActiveScale(ins.scale.Value, ins.height.Value) && ins.onChange != nil {
			ins.onChange()
		}
	}
	ins.scale.OnChanged = func(float64) { apply() }
	ins.height.OnChanged = func(float64) { apply() }

	ins.root = container.NewVBox(
		ins.title,
		widget.NewLabel("Rotation"),
		ins.rotation,
		widget.NewLabel("Scale"),
		ins.scale,
		widget.NewLabel("Height"),
		ins.height,
	)
	ins.refresh()
	return ins
}

func (ins *inspector) refresh() {
	ins.updating = true
	defer func() { ins.updating = false }()

	active, ok := ins.session.Active()
	if !ok {
		ins.title.SetText("No selection")
		return
	}
	ins.title.SetText(fmt.Sprintf("%s (%s)", active.AssetID, active.ID[:8]))
	ins.rotation.SetValue(active.Rotation.Z)
	ins.scale.SetValue(active.Scale.X)
	ins.height.SetValue(active.Scale.Z)
}
