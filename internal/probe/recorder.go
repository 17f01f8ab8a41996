package probe

import (
	"math"

	"github.com/kamenik/sigflow/internal/signal"
)

// Recorder owns the growing series of every registered probe and runs
// the per-step sampling pass.
//
// The sampling test is mod(n, period/dt) < 1 in floating point: a probe
// with no explicit period samples every step, one with period k*dt
// samples every k-th step. The test tolerates drift in the period but
// can double-sample or skip when period/dt is not an integer; this
// exact behavior is kept deliberately for output compatibility.
type Recorder struct {
	probes []*Probe
	series map[*Probe][][]float64
	gen    uint64
}

func NewRecorder(probes []*Probe) *Recorder {
	r := &Recorder{
		probes: probes,
		series: make(map[*Probe][][]float64, len(probes)),
	}
	for _, p := range probes {
		r.series[p] = nil
	}
	return r
}

// Record runs the sampling pass for step counter n. Each sampling probe
// appends a copy, never an alias, of its target's current value.
func (r *Recorder) Record(st *signal.Store, n int64, dt float64) {
	for _, p := range r.probes {
		period := 1.0
		if p.sampleEvery != 0 {
			period = p.sampleEvery / dt
		}
		if math.Mod(float64(n), period) < 1 {
			r.series[p] = append(r.series[p], st.Get(p.target).Snapshot())
		}
	}
}

// Clear empties every series and invalidates any view caches built over
// this recorder.
func (r *Recorder) Clear() {
	for _, p := range r.probes {
		r.series[p] = nil
	}
	r.gen++
}

func (r *Recorder) Probes() []*Probe { return r.probes }

// Bytes reports the accumulated snapshot footprint across all series.
func (r *Recorder) Bytes() int {
	n := 0
	for _, rows := range r.series {
		for _, row := range rows {
			n += 8 * len(row)
		}
	}
	return n
}
