// Package cache memoizes expensive precomputed coefficient vectors
// across builds. The builder consults it before the engine receives its
// operator set; the core never touches it at runtime.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type Cache interface {
	Get(key string) ([]float64, bool)
	Put(key string, values []float64)
	// Shrink reclaims space, dropping the least recently used entries
	// first. A no-op for backends without a size budget.
	Shrink() error
}

// Key derives a stable cache key from the parameters that determine a
// precomputed value.
func Key(parts ...any) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%v|", p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// None caches nothing; every build recomputes.
type None struct{}

func (None) Get(string) ([]float64, bool) { return nil, false }
func (None) Put(string, []float64)        {}
func (None) Shrink() error                { return nil }

// Memory keeps entries for the life of the process.
type Memory struct {
	entries map[string][]float64
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]float64)}
}

func (c *Memory) Get(key string) ([]float64, bool) {
	v, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out, true
}

func (c *Memory) Put(key string, values []float64) {
	v := make([]float64, len(values))
	copy(v, values)
	c.entries[key] = v
}

func (c *Memory) Shrink() error { return nil }

func (c *Memory) Len() int { return len(c.entries) }
