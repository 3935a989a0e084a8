/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "testing"

func TestEscapeCancelsPlacementThenClearsSelection(t *testing.T) {
	s := newTestSession(t)
	d := &Dispatcher{Session: s}

	inst := place(t, s, "bench.simple", plazaA)

	if !d.HandleKey(KeyEvent{Key: KeyEscape}) {
		t.Fatalf("escape not consumed")
	}
	if mode, _ := s.Mode(); mode != ModeIdle {
		t.Fatalf("escape should cancel placement first")
	}

	s.Select(inst.ID)
	d.HandleKey(KeyEvent{Key: KeyEscape})
	if _, ok := s.ActiveID(); ok {
		t.Fatalf("escape while idle should clear the selection")
	}
}

func TestDeleteAndBackspaceRemoveActive(t *testing.T) {
	for _, key := range []Key{KeyDelete, KeyBackspace} {
		s := newTestSession(t)
		d := &Dispatcher{Session: s}
		inst := place(t, s, "bench.simple", plazaA)
		s.CancelPlacing()
		s.Select(inst.ID)

		if !d.HandleKey(KeyEvent{Key: key}) {
			t.Fatalf("%s not consumed", key)
		}
		if len(s.Objects()) != 0 {
			t.Fatalf("%s should delete the active instance", key)
		}
	}
}

func TestUndoRedoChords(t *testing.T) {
	s := newTestSession(t)
	d := &Dispatcher{Session: s}
	place(t, s, "bench.simple", plazaA)

	d.HandleKey(KeyEvent{Key: KeyZ, Ctrl: true})
	if len(s.Objects()) != 0 {
		t.Fatalf("ctrl+z should undo the placement")
	}
	d.HandleKey(KeyEvent{Key: KeyY, Ctrl: true})
	if len(s.Objects()) != 1 {
		t.Fatalf("ctrl+y should redo")
	}
	d.HandleKey(KeyEvent{Key: KeyZ, Meta: true})
	if len(s.Objects()) != 0 {
		t.Fatalf("cmd+z should undo like ctrl+z")
	}
	d.HandleKey(KeyEvent{Key: KeyZ, Ctrl: true, Shift: true})
	if len(s.Objects()) != 1 {
		t.Fatalf("ctrl+shift+z should redo")
	}
}

func TestSaveChord(t *testing.T) {
	s := newTestSession(t)
	saves := 0
	d := &Dispatcher{Session: s, Save: func() { saves++ }}

	d.HandleKey(KeyEvent{Key: KeyS, Ctrl: true})
	d.HandleKey(KeyEvent{Key: KeyS, Meta: true})
	if saves != 2 {
		t.Fatalf("ctrl/cmd+s should trigger save, got %d", saves)
	}
	// Plain s is not a chord.
	if d.HandleKey(KeyEvent{Key: KeyS}) {
		t.Fatalf("bare s must not be consumed")
	}
	if saves != 2 {
		t.Fatalf("bare s must not save")
	}
}
