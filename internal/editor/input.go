/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

// Keyboard surface, decoupled from any one UI toolkit so the dispatch
// rules can be tested headlessly and shared by the fyne front end.

// Key identifies the non-modifier key of a keyboard event.
type Key string

const (
	KeyEscape    Key = "Escape"
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
	KeyS         Key = "S"
	KeyY         Key = "Y"
	KeyZ         Key = "Z"
)

// KeyEvent is one key press with its modifier state. Ctrl and Meta are
// interchangeable so macOS Cmd chords behave like Ctrl elsewhere.
type KeyEvent struct {
	Key   Key
	Ctrl  bool
	Meta  bool
	Shift bool
}

func (e KeyEvent) chord() bool { return e.Ctrl || e.Meta }

// Dispatcher routes keyboard events to the session and, for the save
// chord, to the persistence layer.
type Dispatcher struct {
	Session *Session
	// Save is invoked on Ctrl/Cmd+S; nil disables the chord.
	Save func()
}

// HandleKey applies an event and reports whether it was consumed.
// Escape cancels placement first and clears the selection otherwise;
// the remaining chords map one-to-one onto session operations. No-op
// mutations (undo at the baseline, delete with no selection) still
// consume the event, they just change nothing.
func (d *Dispatcher) HandleKey(e KeyEvent) bool {
	s := d.Session
	switch {
	case e.Key == KeyEscape:
		if mode, _ := s.Mode(); mode == ModePlacing {
			s.CancelPlacing()
		} else {
			s.ClearSelection()
		}
		return true
	case e.Key == KeyDelete || e.Key == KeyBackspace:
		s.DeleteActive()
		return true
	case e.Key == KeyS && e.chord():
		if d.Save != nil {
			d.Save()
		}
		return true
	case e.Key == KeyZ && e.chord() && e.Shift:
		s.Redo()
		return true
	case e.Key == KeyZ && e.chord():
		s.Undo()
		return true
	case e.Key == KeyY && e.chord():
		s.Redo()
		return true
	}
	return false
}
