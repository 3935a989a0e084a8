//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"citysketch/internal/catalog"
	"citysketch/internal/config"
	"citysketch/internal/crash"
	"citysketch/internal/editor"
	"citysketch/internal/export"
	applog "citysketch/internal/log"
	"citysketch/internal/persist"
	"citysketch/internal/store"
)

// Default viewport center: Plaza Alemania, Buenos Aires.
const (
	startLng = -58.46
	startLat = -34.545
)

// Run starts the Fyne-based desktop editor for one proposal sandbox.
func Run(proposalID string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting editor", slog.String("proposal", proposalID))

	if proposalID == "" {
		return fmt.Errorf("a proposal id is required")
	}

	cfg, token, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	session := editor.NewSession(cat,
		editor.WithHistoryDepth(cfg.Editor.HistoryDepth),
		editor.WithPickRadius(cfg.Editor.PickRadiusM),
	)

	var journal *store.Journal
	if path, err := config.ConfigPath(); err == nil {
		if j, err := store.Open(filepath.Dir(path)); err != nil {
			l.Warn("recovery journal unavailable", slog.Any("err", err))
		} else {
			journal = j
			defer func() { _ = j.Close() }()
		}
	}

	defer crash.Recover(&crash.Context{
		Journal:    journal,
		Session:    session,
		ProposalID: proposalID,
	})

	fyneApp := app.NewWithID("citysketch")
	w := fyneApp.NewWindow("CitySketch — " + proposalID)
	w.Resize(fyne.NewSize(1200, 800))

	remote := persist.NewClient(cfg.Backend.BaseURL, token, cfg.Backend.EffectiveTimeout())
	ctrl := persist.NewController(remote, session, proposalID,
		persist.WithAutosaveDelay(cfg.Editor.AutosaveDelay()),
		persist.WithJournal(journal),
		persist.WithErrorHandler(func(stage string, err error) {
			fyne.Do(func() {
				dialog.ShowError(fmt.Errorf("%s failed: %w", stage, err), w)
			})
		}),
	)
	defer ctrl.Close()

	plan := newPlanCanvas(session, startLng, startLat)
	status := widget.NewLabel("Loading…")
	inspector := newInspector(session)

	refresh := func() {
		plan.Refresh()
		inspector.refresh()
		status.SetText(statusLine(session, ctrl))
	}
	plan.onChange = func() {
		inspector.refresh()
		status.SetText(statusLine(session, ctrl))
	}
	inspector.onChange = func() {
		plan.Refresh()
		status.SetText(statusLine(session, ctrl))
	}

	palette := buildPalette(cat, session, refresh)

	disp := &editor.Dispatcher{
		Session: session,
		Save: func() {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
				defer cancel()
				_ = ctrl.Save(ctx)
				fyne.Do(refresh)
			}()
		},
	}
	bindShortcuts(w, disp, refresh)

	w.SetMainMenu(buildMenu(w, session, ctrl, cat, proposalID, disp, refresh))

	w.SetCloseIntercept(func() {
		if ctrl.ConfirmDiscard(nil) {
			w.Close()
			return
		}
		dialog.ShowConfirm("Unsaved changes",
			"This sandbox has unsaved changes. Leave and discard them?",
			func(ok bool) {
				if ok && ctrl.ConfirmDiscard(func() bool { return true }) {
					w.Close()
				}
			}, w)
	})

	split := container.NewHSplit(palette, plan)
	split.Offset = 0.2
	right := container.NewHSplit(split, inspector.root)
	right.Offset = 0.82
	w.SetContent(container.NewBorder(nil, status, nil, nil, right))

	// Initial load off the UI thread; failures surface via the error
	// handler and the editor proceeds on an empty scene.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
		defer cancel()
		_ = ctrl.Load(ctx)
		fyne.Do(refresh)
	}()

	// Keep the save indicator fresh even when the user idles.
	go func() {
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for range tick.C {
			fyne.Do(func() { status.SetText(statusLine(session, ctrl)) })
		}
	}()

	w.ShowAndRun()
	return nil
}

func loadCatalog(cfg config.AppConfig) (*catalog.Catalog, error) {
	if cfg.Editor.CatalogFile != "" {
		return catalog.LoadFile(cfg.Editor.CatalogFile)
	}
	return catalog.Default()
}

func statusLine(session *editor.Session, ctrl *persist.Controller) string {
	st := ctrl.State()
	var save string
	switch {
	case st.IsLoading:
		save = "loading…"
	case st.IsSaving:
		save = "saving…"
	case st.HasUnsavedChanges:
		save = "unsaved changes"
	case !st.LastSavedAt.IsZero():
		save = "saved " + st.LastSavedAt.Format("15:04:05")
	default:
		save = "not saved yet"
	}

	mode := "select"
	if m, asset := session.Mode(); m == editor.ModePlacing {
		mode = "placing " + asset
	}
	sel := ""
	if id, ok := session.ActiveID(); ok {
		sel = " · selected " + id[:8]
	}
	return fmt.Sprintf("%d objects · %s%s · %s", len(session.Objects()), mode, sel, save)
}

func buildPalette(cat *catalog.Catalog, session *editor.Session, refresh func()) fyne.CanvasObject {
	assets := cat.All()
	list := widget.NewList(
		func() int { return len(assets) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && i < len(assets) {
				o.(*widget.Label).SetText(assets[i].Name)
			}
		},
	)
	list.OnSelected = func(i widget.ListItemID) {
		if i < 0 || i >= len(assets) {
			return
		}
		// A second tap on the armed asset disarms it.
		_ = session.TogglePlacing(assets[i].ID)
		if mode, _ := session.Mode(); mode == editor.ModeIdle {
			list.UnselectAll()
		}
		refresh()
	}
	return container.NewBorder(widget.NewLabel("Assets"), nil, nil, nil, list)
}

func bindShortcuts(w fyne.Window, disp *editor.Dispatcher, refresh func()) {
	type chord struct {
		key fyne.KeyName
		mod fyne.KeyModifier
		ev  editor.KeyEvent
	}
	chords := []chord{
		{fyne.KeyS, fyne.KeyModifierControl, editor.KeyEvent{Key: editor.KeyS, Ctrl: true}},
		{fyne.KeyS, fyne.KeyModifierSuper, editor.KeyEvent{Key: editor.KeyS, Meta: true}},
		{fyne.KeyZ, fyne.KeyModifierControl, editor.KeyEvent{Key: editor.KeyZ, Ctrl: true}},
		{fyne.KeyZ, fyne.KeyModifierSuper, editor.KeyEvent{Key: editor.KeyZ, Meta: true}},
		{fyne.KeyZ, fyne.KeyModifierControl | fyne.KeyModifierShift, editor.KeyEvent{Key: editor.KeyZ, Ctrl: true, Shift: true}},
		{fyne.KeyZ, fyne.KeyModifierSuper | fyne.KeyModifierShift, editor.KeyEvent{Key: editor.KeyZ, Meta: true, Shift: true}},
		{fyne.KeyY, fyne.KeyModifierControl, editor.KeyEvent{Key: editor.KeyY, Ctrl: true}},
	}
	for _, c := range chords {
		ev := c.ev
		w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: c.key, Modifier: c.mod}, func(fyne.Shortcut) {
			if disp.HandleKey(ev) {
				refresh()
			}
		})
	}
	w.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		var k editor.Key
		switch e.Name {
		case fyne.KeyEscape:
			k = editor.KeyEscape
		case fyne.KeyDelete:
			k = editor.KeyDelete
		case fyne.KeyBackspace:
			k = editor.KeyBackspace
		default:
			return
		}
		if disp.HandleKey(editor.KeyEvent{Key: k}) {
			refresh()
		}
	})
}

func buildMenu(w fyne.Window, session *editor.Session, ctrl *persist.Controller, cat *catalog.Catalog, proposalID string, disp *editor.Dispatcher, refresh func()) *fyne.MainMenu {
	exportPDF := fyne.NewMenuItem("Export PDF…", func() {
		d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			if err := export.ExportProposalPDF(session.SceneSnapshot(), cat, proposalID, path, export.PDFOptions{}); err != nil {
				dialog.ShowError(err, w)
			}
		}, w)
		d.SetFileName(proposalID + ".pdf")
		d.Show()
	})
	exportPNG := fyne.NewMenuItem("Export plan PNG…", func() {
		d := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			if err := export.ExportPlanPNG(session.SceneSnapshot(), cat, path, export.PNGOptions{Labels: true}); err != nil {
				dialog.ShowError(err, w)
			}
		}, w)
		d.SetFileName(proposalID + ".png")
		d.Show()
	})
	save := fyne.NewMenuItem("Save", func() { disp.Save() })

	undo := fyne.NewMenuItem("Undo", func() { session.Undo(); refresh() })
	redo := fyne.NewMenuItem("Redo", func() { session.Redo(); refresh() })
	del := fyne.NewMenuItem("Delete selection", func() { session.DeleteActive(); refresh() })

	return fyne.NewMainMenu(
		fyne.NewMenu("File", save, fyne.NewMenuItemSeparator(), exportPDF, exportPNG),
		fyne.NewMenu("Edit", undo, redo, fyne.NewMenuItemSeparator(), del),
	)
}
