package layout

import (
	"path/filepath"
	"slices"
	"testing"

	errs "github.com/matzehuels/comboom/pkg/errors"
	"github.com/matzehuels/comboom/pkg/vec"
)

func TestSnapshotViews(t *testing.T) {
	sim := newSim(t, DefaultConfig(), map[string]vec.Vec2{
		"ann": vec.New(0, 0),
		"bob": vec.New(100, 0),
	})
	sim.PointerDown(vec.New(0, 0))

	snap := sim.Snapshot()
	if len(snap.Members) != 5 || len(snap.Clusters) != 3 {
		t.Fatalf("members = %d, clusters = %d", len(snap.Members), len(snap.Clusters))
	}
	// Jazz has three pairs, Funk one.
	if len(snap.Edges) != 4 {
		t.Errorf("edges = %d, want 4", len(snap.Edges))
	}
	if snap.Selected != "ann" || !snap.Members[0].Pinned {
		t.Errorf("selected = %q, pinned = %v", snap.Selected, snap.Members[0].Pinned)
	}
	if got := snap.Members[1].Clusters; !slices.Equal(got, []string{"Jazz", "Funk"}) {
		t.Errorf("bob clusters = %v", got)
	}
	for _, e := range snap.Edges {
		if e.A >= e.B {
			t.Errorf("edge %s-%s not ordered", e.A, e.B)
		}
		c, ok := snap.Cluster(e.Cluster)
		if !ok || c.Color != e.Color {
			t.Errorf("edge %s-%s color %q does not match cluster %q", e.A, e.B, e.Color, e.Cluster)
		}
	}

	// Views are copies.
	snap.Clusters[0].Members[0] = "mallory"
	if c, _ := sim.Store().Cluster("Jazz"); c.Members[0] != "ann" {
		t.Error("snapshot aliases store cluster members")
	}
}

func TestSnapshotBounds(t *testing.T) {
	snap := Snapshot{Members: []MemberView{
		{Name: "a", Pos: vec.New(-10, 5)},
		{Name: "b", Pos: vec.New(30, -20)},
		{Name: "c", Pos: vec.New(0, 40)},
	}}
	want := vec.Rect{Min: vec.New(-10, -20), Max: vec.New(30, 40)}
	if got := snap.Bounds(); got != want {
		t.Errorf("Bounds = %v, want %v", got, want)
	}
	if got := (Snapshot{}).Bounds(); got != (vec.Rect{}) {
		t.Errorf("empty Bounds = %v", got)
	}
}

func TestSnapshotFileRestore(t *testing.T) {
	sim := newSim(t, DefaultConfig(), nil)
	for range 30 {
		sim.Step(frame)
	}
	path := filepath.Join(t.TempDir(), "frame.json")
	if err := WriteSnapshotFile(sim.Snapshot(), path); err != nil {
		t.Fatalf("WriteSnapshotFile: %v", err)
	}

	snap, err := ReadSnapshotFile(path)
	if err != nil {
		t.Fatalf("ReadSnapshotFile: %v", err)
	}
	if snap.Tick != 30 {
		t.Errorf("tick = %d, want 30", snap.Tick)
	}

	fresh := newSim(t, DefaultConfig(), nil)
	if err := fresh.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if fresh.Ticks() != 30 {
		t.Errorf("restored ticks = %d", fresh.Ticks())
	}
	want := positions(sim.Store())
	for name, got := range positions(fresh.Store()) {
		if got != want[name] {
			t.Errorf("%s = %v, want %v", name, got, want[name])
		}
	}
}

func TestRestoreErrors(t *testing.T) {
	sim := newSim(t, DefaultConfig(), nil)
	before := positions(sim.Store())

	snap := sim.Snapshot()
	snap.Members = append(snap.Members, MemberView{Name: "ghost"})
	snap.Members[0].Pos = vec.New(1e6, 1e6)
	if err := sim.Restore(snap); !errs.Is(err, errs.ErrCodeMemberNotFound) {
		t.Errorf("Restore = %v, want %s", err, errs.ErrCodeMemberNotFound)
	}
	if got := pos(t, sim.Store(), "ann"); got != before["ann"] {
		t.Error("failed restore moved members")
	}

	if _, err := ReadSnapshotFile(filepath.Join(t.TempDir(), "none.json")); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}
