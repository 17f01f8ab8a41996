// Package probe records sampled signal values over simulated time and
// exposes them through a read-only, lazily materialized view.
package probe

import (
	"fmt"

	"github.com/kamenik/sigflow/internal/signal"
)

// Probe references a signal (or a read slice of one) and a sampling
// period in time units. A zero period means every step. The sampling
// decision is a pure function of the step counter and the period, never
// of wall-clock time.
type Probe struct {
	name        string
	target      *signal.Signal
	sampleEvery float64
}

// New registers nothing by itself; the builder collects probes into the
// model and the engine's recorder owns their series.
func New(name string, target *signal.Signal, sampleEvery float64) *Probe {
	if sampleEvery < 0 {
		panic(fmt.Sprintf("probe %s: negative sampling period %g", name, sampleEvery))
	}
	return &Probe{name: name, target: target, sampleEvery: sampleEvery}
}

func (p *Probe) Name() string           { return p.name }
func (p *Probe) Target() *signal.Signal { return p.target }

// SampleEvery returns the sampling period, 0 meaning every step.
func (p *Probe) SampleEvery() float64 { return p.sampleEvery }

func (p *Probe) String() string {
	if p.sampleEvery == 0 {
		return fmt.Sprintf("Probe(%s)", p.name)
	}
	return fmt.Sprintf("Probe(%s, every %gs)", p.name, p.sampleEvery)
}
