package signal

import "fmt"

// Signal identifies a logical piece of mutable numeric state. A Signal
// either owns its storage (base signal) or is a view into another
// signal's storage at an offset and stride. Identity is pointer
// identity: two *Signal values are the same signal only if they are the
// same pointer.
type Signal struct {
	name    string
	shape   []int
	initial []float64
	base    *Signal
	offset  int
	stride  int
	length  int
}

// New creates a base signal with the given initial value. The initial
// value is copied and becomes the reset snapshot.
func New(name string, initial []float64) *Signal {
	init := make([]float64, len(initial))
	copy(init, initial)
	return &Signal{
		name:    name,
		shape:   []int{len(init)},
		initial: init,
		stride:  1,
		length:  len(init),
	}
}

// NewMatrix creates a base signal holding a rows x cols matrix in
// row-major order. len(initial) must equal rows*cols.
func NewMatrix(name string, rows, cols int, initial []float64) *Signal {
	s := New(name, initial)
	if rows*cols != s.length {
		panic(fmt.Sprintf("signal %s: %d values for %dx%d matrix", name, s.length, rows, cols))
	}
	s.shape = []int{rows, cols}
	return s
}

// Scalar creates a one-element base signal.
func Scalar(name string, initial float64) *Signal {
	return New(name, []float64{initial})
}

// Slice returns a view of length n into s starting at offset, with unit
// stride. The view owns no storage; reads and writes route through the
// base signal's buffer.
func (s *Signal) Slice(name string, offset, n int) *Signal {
	return s.StridedSlice(name, offset, n, 1)
}

// StridedSlice returns a view of n elements taken every stride elements
// starting at offset.
func (s *Signal) StridedSlice(name string, offset, n, stride int) *Signal {
	if stride < 1 {
		panic(fmt.Sprintf("signal %s: stride %d", name, stride))
	}
	last := offset + (n-1)*stride
	if offset < 0 || n < 1 || last >= s.length {
		panic(fmt.Sprintf("signal %s: view [%d:%d:%d] outside %s (len %d)",
			name, offset, n, stride, s.name, s.length))
	}
	base := s.Base()
	off := s.offset + offset*s.stride
	str := stride * s.stride
	init := make([]float64, n)
	for i := range init {
		init[i] = base.initial[off+i*str]
	}
	return &Signal{
		name:    name,
		shape:   []int{n},
		initial: init,
		base:    base,
		offset:  off,
		stride:  str,
		length:  n,
	}
}

func (s *Signal) Name() string { return s.name }

// Base returns the signal owning the underlying storage: s itself for a
// base signal, the root of the view chain otherwise.
func (s *Signal) Base() *Signal {
	if s.base == nil {
		return s
	}
	return s.base
}

// IsView reports whether s routes its storage through another signal.
func (s *Signal) IsView() bool { return s.base != nil }

func (s *Signal) Len() int     { return s.length }
func (s *Signal) Shape() []int { return s.shape }

// Rows and Cols interpret the signal as a matrix; a vector is a
// column (n x 1).
func (s *Signal) Rows() int {
	return s.shape[0]
}

func (s *Signal) Cols() int {
	if len(s.shape) < 2 {
		return 1
	}
	return s.shape[1]
}

// Initial returns a copy of the reset snapshot captured at construction.
func (s *Signal) Initial() []float64 {
	out := make([]float64, len(s.initial))
	copy(out, s.initial)
	return out
}

func (s *Signal) String() string {
	if s.IsView() {
		return fmt.Sprintf("Signal(%s -> %s[%d:+%dx%d])", s.name, s.Base().name, s.offset, s.length, s.stride)
	}
	return fmt.Sprintf("Signal(%s, len=%d)", s.name, s.length)
}
