package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kamenik/sigflow/internal/cache"
	"github.com/kamenik/sigflow/internal/engine"
)

func mixedSpec() *NetworkSpec {
	return &NetworkSpec{
		Name: "mixed",
		Signals: []SignalSpec{
			{Name: "stim", Size: 1},
			{Name: "pair", Size: 4},
			{Name: "front", ViewOf: "pair", Offset: 0, Size: 2},
			{Name: "back", ViewOf: "pair", Offset: 2, Size: 2},
			{Name: "gain", Rows: 2, Cols: 1, Values: []float64{1, -1}},
			{Name: "smooth", Size: 2},
		},
		Operators: []OpSpec{
			{Kind: "sine", Target: "stim", Amplitude: 1, Frequency: 2},
			{Kind: "zero", Target: "front"},
			{Kind: "dotinc", Target: "front", Matrix: "gain", Vector: "stim"},
			{Kind: "noise", Target: "back", Std: 0.1},
			{Kind: "lowpass", Target: "smooth", Source: "back", Tau: 0.05},
		},
		Probes: []ProbeSpec{
			{Signal: "front"},
			{Signal: "smooth", SampleEvery: 0.01},
		},
	}
}

func TestBuildMixedNetwork(t *testing.T) {
	m, err := Build(mixedSpec(), 0.001, cache.NewMemory())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Operators) != 5 {
		t.Errorf("operators = %d, want 5", len(m.Operators))
	}
	if len(m.Probes) != 2 {
		t.Errorf("probes = %d, want 2", len(m.Probes))
	}

	front, ok := m.Signal("front")
	if !ok || !front.IsView() {
		t.Fatal("front must be a view")
	}
	pair, _ := m.Signal("pair")
	if front.Base() != pair {
		t.Error("front must alias pair")
	}

	// The built model must construct and run.
	sim, err := engine.New(m, engine.WithSeed(3))
	if err != nil {
		t.Fatal(err)
	}
	if err := sim.RunSteps(10); err != nil {
		t.Fatal(err)
	}
	if got := sim.Data().MustSeries(m.Probes[0]).Len(); got != 10 {
		t.Errorf("front samples = %d, want 10", got)
	}
}

func TestBuildDivNetwork(t *testing.T) {
	spec := &NetworkSpec{
		Name: "ratio",
		Signals: []SignalSpec{
			{Name: "num", Size: 2, Values: []float64{6, 8}},
			{Name: "den", Size: 1, Values: []float64{2}},
			{Name: "q", Size: 2},
		},
		Operators: []OpSpec{
			{Kind: "div", Target: "q", A: "num", B: "den"},
		},
		Probes: []ProbeSpec{{Signal: "q"}},
	}
	m, err := Build(spec, 0.001, cache.NewMemory())
	if err != nil {
		t.Fatal(err)
	}
	sim, err := engine.New(m, engine.WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := sim.Step(); err != nil {
		t.Fatal(err)
	}
	got := sim.Data().MustSeries(m.Probes[0]).Row(0)
	if got[0] != 3 || got[1] != 4 {
		t.Errorf("q = %v, want [3 4]", got)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		spec *NetworkSpec
	}{
		{"unknown kind", &NetworkSpec{
			Signals:   []SignalSpec{{Name: "s", Size: 1}},
			Operators: []OpSpec{{Kind: "teleport", Target: "s"}},
		}},
		{"unknown signal", &NetworkSpec{
			Operators: []OpSpec{{Kind: "zero", Target: "ghost"}},
		}},
		{"unknown probe target", &NetworkSpec{
			Signals:   []SignalSpec{{Name: "s", Size: 1}},
			Operators: []OpSpec{{Kind: "zero", Target: "s"}},
			Probes:    []ProbeSpec{{Signal: "ghost"}},
		}},
		{"sizeless signal", &NetworkSpec{
			Signals: []SignalSpec{{Name: "s"}},
		}},
		{"value count mismatch", &NetworkSpec{
			Signals: []SignalSpec{{Name: "s", Size: 3, Values: []float64{1}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.spec, 0.001, nil); err == nil {
				t.Error("want error")
			}
		})
	}
}

func TestGeneratedSignalsAreCachedAndDeterministic(t *testing.T) {
	spec := &NetworkSpec{
		Name: "gen",
		Signals: []SignalSpec{
			{Name: "w", Rows: 4, Cols: 2, Gen: &GenSpec{Kind: "gaussian", Std: 0.5, Seed: 11}},
			{Name: "x", Size: 2},
			{Name: "y", Size: 4},
		},
		Operators: []OpSpec{
			{Kind: "zero", Target: "y"},
			{Kind: "dotinc", Target: "y", Matrix: "w", Vector: "x"},
		},
	}

	c := cache.NewMemory()
	m1, err := Build(spec, 0.001, c)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() == 0 {
		t.Fatal("generator result not cached")
	}

	m2, err := Build(spec, 0.001, c)
	if err != nil {
		t.Fatal(err)
	}

	w1, _ := m1.Signal("w")
	w2, _ := m2.Signal("w")
	a, b := w1.Initial(), w2.Initial()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("generated values differ at %d across builds", i)
		}
	}
}

func TestLowpassCoefficientsMemoized(t *testing.T) {
	spec := &NetworkSpec{
		Name: "lp",
		Signals: []SignalSpec{
			{Name: "in", Size: 1},
			{Name: "out", Size: 1},
		},
		Operators: []OpSpec{
			{Kind: "lowpass", Target: "out", Source: "in", Tau: 0.1},
		},
	}

	c := cache.NewMemory()
	m, err := Build(spec, 0.001, c)
	if err != nil {
		t.Fatal(err)
	}
	// Coefficients are computed lazily at step compile time.
	if _, err := engine.New(m, engine.WithSeed(1)); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Errorf("cache entries = %d, want 1 (lowpass coefficients)", c.Len())
	}
}

func TestLoadSaveRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "net.yaml")

	if err := Save(path, mixedSpec()); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "mixed" {
		t.Errorf("name = %q", loaded.Name)
	}
	if len(loaded.Signals) != 6 || len(loaded.Operators) != 5 || len(loaded.Probes) != 2 {
		t.Error("roundtrip lost content")
	}
}

func TestLoadDefaultsNameToPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anon.yaml")
	if err := os.WriteFile(path, []byte("signals:\n  - name: s\n    size: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	spec, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if spec.Name != path {
		t.Errorf("name = %q, want the file path", spec.Name)
	}
}
