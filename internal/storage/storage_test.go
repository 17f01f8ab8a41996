package storage

import (
	"path/filepath"
	"testing"

	"github.com/kamenik/sigflow/internal/engine"
	"github.com/kamenik/sigflow/internal/model"
	"github.com/kamenik/sigflow/internal/op"
	"github.com/kamenik/sigflow/internal/probe"
	"github.com/kamenik/sigflow/internal/signal"
)

func sampleRun(t *testing.T) *Run {
	t.Helper()
	s := signal.New("s", []float64{0, 0})
	m := model.New("archived", 0.5)
	m.Add(op.NewApply("ramp", s, nil, func(tm float64, _, out []float64) {
		out[0] = tm
		out[1] = -tm
	}))
	m.AddProbe(probe.New("s", s, 0))

	sim, err := engine.New(m, engine.WithSeed(17))
	if err != nil {
		t.Fatal(err)
	}
	if err := sim.RunSteps(4); err != nil {
		t.Fatal(err)
	}
	return Capture("archived_0001", "archived", sim)
}

func checkRoundtrip(t *testing.T, store Store) {
	t.Helper()
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	want := sampleRun(t)
	if err := store.Save(want); err != nil {
		t.Fatal(err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != want.ID {
		t.Fatalf("list = %+v", runs)
	}
	if runs[0].Seed != 17 || runs[0].Steps != 4 {
		t.Errorf("metadata lost: %+v", runs[0])
	}

	got, err := store.Load(want.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Probes) != 1 {
		t.Fatalf("probes = %d, want 1", len(got.Probes))
	}
	ps := got.Probes[0]
	if ps.Name != "s" || len(ps.Samples) != 4 {
		t.Fatalf("series: name=%q samples=%d", ps.Name, len(ps.Samples))
	}
	for i, row := range ps.Samples {
		wantT := 0.5 * float64(i+1)
		if row[0] != wantT || row[1] != -wantT {
			t.Errorf("sample %d = %v, want [%g %g]", i, row, wantT, -wantT)
		}
		if ps.Times[i] != wantT {
			t.Errorf("time %d = %g, want %g", i, ps.Times[i], wantT)
		}
	}
}

func TestFSRoundtrip(t *testing.T) {
	checkRoundtrip(t, NewFSStore(t.TempDir()))
}

func TestSQLiteRoundtrip(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	defer store.Close()
	checkRoundtrip(t, store)
}

func TestFSListEmpty(t *testing.T) {
	store := NewFSStore(filepath.Join(t.TempDir(), "never-initialized"))
	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("runs = %v, want none", runs)
	}
}

func TestSQLiteRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err := store.Save(&Run{}); err == nil {
		t.Error("save before init must fail")
	}
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewStore("fs", dir); err != nil {
		t.Error(err)
	}
	if _, err := NewStore("", dir); err != nil {
		t.Error("empty kind must default to fs")
	}
	if _, err := NewStore("sqlite", dir); err != nil {
		t.Error(err)
	}
	if _, err := NewStore("carrier-pigeon", dir); err == nil {
		t.Error("unknown backend must fail")
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := NewRunID("net")
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
