/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"context"
	"fmt"
	"testing"

	"citysketch/internal/domain"
)

func testScene(ids ...string) domain.Scene {
	var s domain.Scene
	for _, id := range ids {
		s.AddInstance(domain.PlacedInstance{
			ID: id, AssetID: "bench.simple",
			Position: domain.Vec3{X: -58.46, Y: -34.545},
			Scale:    domain.Vec3{X: 1, Y: 1, Z: 1},
			Color:    "#795548",
		})
	}
	return s
}

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestSnapshotAndLatestRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	if _, _, ok, err := j.Latest(ctx, "prop-1"); err != nil || ok {
		t.Fatalf("empty journal should report no snapshot, ok=%v err=%v", ok, err)
	}

	if err := j.Snapshot(ctx, "prop-1", testScene("a")); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := j.Snapshot(ctx, "prop-1", testScene("a", "b")); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	scene, ts, ok, err := j.Latest(ctx, "prop-1")
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if len(scene.Objects) != 2 || scene.Objects[1].ID != "b" {
		t.Fatalf("latest should be the second snapshot: %+v", scene.Objects)
	}
	if ts.IsZero() {
		t.Fatalf("timestamp missing")
	}
}

func TestSnapshotsAreScopedByProposal(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	if err := j.Snapshot(ctx, "prop-1", testScene("a")); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, _, ok, err := j.Latest(ctx, "prop-2"); err != nil || ok {
		t.Fatalf("prop-2 should have no snapshots, ok=%v err=%v", ok, err)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := j.Snapshot(ctx, "prop-1", testScene(fmt.Sprintf("obj-%d", i))); err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
	}
	deleted, err := j.Prune(ctx, "prop-1", 3)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 7 {
		t.Fatalf("expected 7 pruned rows, got %d", deleted)
	}
	scene, _, ok, err := j.Latest(ctx, "prop-1")
	if err != nil || !ok {
		t.Fatalf("latest after prune: ok=%v err=%v", ok, err)
	}
	if scene.Objects[0].ID != "obj-9" {
		t.Fatalf("newest snapshot must survive pruning: %+v", scene.Objects)
	}
}

func TestSnapshotRequiresProposalID(t *testing.T) {
	j := openTestJournal(t)
	if err := j.Snapshot(context.Background(), "", testScene("a")); err == nil {
		t.Fatalf("empty proposal id must be rejected")
	}
}
