package signal

import "fmt"

// Store owns the concrete storage for every signal in a built model,
// keyed by base identity, plus one distinguished entry for simulated
// time. Iteration order over signals is insertion order, so reset and
// diagnostics are deterministic.
type Store struct {
	arenas map[*Signal][]float64
	order  []*Signal
	seen   map[*Signal]bool
	time   float64
}

func NewStore() *Store {
	return &Store{
		arenas: make(map[*Signal][]float64),
		seen:   make(map[*Signal]bool),
	}
}

// Init materializes storage for sig, idempotently. For a view the base
// arena is allocated (if needed) and the view addresses a sub-region of
// it; no separate storage is created. The arena starts at the base
// signal's initial value.
func (st *Store) Init(sig *Signal) {
	if st.seen[sig] {
		return
	}
	base := sig.Base()
	if _, ok := st.arenas[base]; !ok {
		st.arenas[base] = base.Initial()
		if !st.seen[base] {
			st.seen[base] = true
			st.order = append(st.order, base)
		}
	}
	if !st.seen[sig] {
		st.seen[sig] = true
		st.order = append(st.order, sig)
	}
}

// Has reports whether sig has been materialized.
func (st *Store) Has(sig *Signal) bool { return st.seen[sig] }

// Get returns the buffer addressing sig's storage. The signal must have
// been materialized with Init. The simulated-time entry is not
// reachable through Get; use Time and SetTime.
func (st *Store) Get(sig *Signal) Buffer {
	data, ok := st.arenas[sig.Base()]
	if !ok {
		panic(fmt.Sprintf("signal store: %s not initialized", sig.Name()))
	}
	return Buffer{data: data, offset: sig.offset, stride: sig.stride, n: sig.length}
}

// Reset restores sig's buffer contents to the snapshot captured at its
// construction.
func (st *Store) Reset(sig *Signal) {
	st.Get(sig).CopyFrom(sig.initial)
}

// ResetAll restores every base signal to its initial value and zeroes
// simulated time. Views are covered by their base.
func (st *Store) ResetAll() {
	for _, sig := range st.order {
		if !sig.IsView() {
			st.Reset(sig)
		}
	}
	st.time = 0
}

// Signals returns the materialized signals in insertion order. The
// time entry is not a signal and is never included.
func (st *Store) Signals() []*Signal {
	out := make([]*Signal, len(st.order))
	copy(out, st.order)
	return out
}

// Bytes reports the arena storage footprint, counting each base buffer
// once regardless of how many views alias it.
func (st *Store) Bytes() int {
	n := 0
	for _, a := range st.arenas {
		n += 8 * len(a)
	}
	return n
}

func (st *Store) Time() float64     { return st.time }
func (st *Store) SetTime(t float64) { st.time = t }
