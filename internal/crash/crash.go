/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus a last-ditch
// scene snapshot in the local recovery journal.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"citysketch/internal/editor"
	applog "citysketch/internal/log"
	"citysketch/internal/store"
	"citysketch/internal/telemetry"
	"citysketch/internal/version"
)

// exitFn is swapped in tests so Recover does not terminate the test process.
var exitFn = os.Exit

// Context carries what Recover needs to preserve the user's work. All
// fields are optional; a nil Context still produces a report.
type Context struct {
	Journal    *store.Journal
	Session    *editor.Session
	ProposalID string
	ReportDir  string // falls back to os.TempDir()
}

// Recover captures a panic, logs an error with stacktrace, writes a
// crash report file, and snapshots the current scene into the recovery
// journal so an unsaved sandbox survives the crash.
//
/// Usage: defer crash.Recover(cc)
func Recover(cc *Context) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, _ := writeReport(cc, r, stack)

	if cc != nil && cc.Journal != nil && cc.Session != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cc.Journal.Snapshot(ctx, cc.ProposalID, cc.Session.SceneSnapshot()); err != nil {
			l.Error("crash scene snapshot failed", slog.Any("err", err))
		} else {
			l.Info("crash scene snapshot written", slog.String("journal", cc.Journal.Path()))
		}
		cancel()
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	// Non-zero exit signals the failure in CLI context.
	exitFn(2)
}

func writeReport(cc *Context, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if cc != nil && cc.ReportDir != "" {
		dir = cc.ReportDir
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "CitySketch Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if cc != nil {
		_, _ = fmt.Fprintf(&buf, "Proposal: %s\n", cc.ProposalID)
		if cc.Session != nil {
			_, _ = fmt.Fprintf(&buf, "Objects: %d\n", len(cc.Session.Objects()))
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	// optionally upload anonymized crash report (opt-in via env)
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
