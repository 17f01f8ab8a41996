package cache

import (
	"fmt"
	"os"
	"testing"
)

func TestKeyIsStable(t *testing.T) {
	a := Key("lowpass", 0.05, 0.001)
	b := Key("lowpass", 0.05, 0.001)
	c := Key("lowpass", 0.05, 0.002)
	if a != b {
		t.Error("identical parts must produce identical keys")
	}
	if a == c {
		t.Error("different parts must produce different keys")
	}
}

func TestMemoryRoundtrip(t *testing.T) {
	c := NewMemory()
	if _, ok := c.Get("missing"); ok {
		t.Error("miss expected")
	}

	c.Put("k", []float64{1, 2, 3})
	got, ok := c.Get("k")
	if !ok || len(got) != 3 || got[1] != 2 {
		t.Fatalf("got %v, %v", got, ok)
	}

	// Entries must be insulated from caller mutation on both sides.
	got[0] = 99
	again, _ := c.Get("k")
	if again[0] != 1 {
		t.Error("Get must hand out a copy")
	}

	src := []float64{7}
	c.Put("k2", src)
	src[0] = 8
	v, _ := c.Get("k2")
	if v[0] != 7 {
		t.Error("Put must store a copy")
	}
}

func TestFileRoundtrip(t *testing.T) {
	c := NewFile(t.TempDir(), 0)

	if _, ok := c.Get(Key("absent")); ok {
		t.Error("miss expected")
	}

	key := Key("gaussian", 8, 0.5, int64(11))
	c.Put(key, []float64{1.5, -2.5})
	got, ok := c.Get(key)
	if !ok || len(got) != 2 || got[0] != 1.5 || got[1] != -2.5 {
		t.Fatalf("got %v, %v", got, ok)
	}
}

func TestFileShrinkEnforcesBudget(t *testing.T) {
	dir := t.TempDir()
	c := NewFile(dir, 64)

	big := make([]float64, 32)
	for i := 0; i < 8; i++ {
		c.Put(Key("entry", i), big)
	}

	if err := c.Shrink(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var total int64
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			t.Fatal(err)
		}
		total += info.Size()
	}
	if total > 64 {
		t.Errorf("shrink left %d bytes in %d files over a 64-byte budget", total, len(entries))
	}
}

func TestShrinkOnMissingDir(t *testing.T) {
	c := NewFile(fmt.Sprintf("%s/never-created", t.TempDir()), 0)
	if err := c.Shrink(); err != nil {
		t.Errorf("missing dir must be a no-op: %v", err)
	}
}

func TestNoneNeverHits(t *testing.T) {
	c := None{}
	c.Put("k", []float64{1})
	if _, ok := c.Get("k"); ok {
		t.Error("None must not retain entries")
	}
}
