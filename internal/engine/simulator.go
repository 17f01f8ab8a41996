// Package engine drives a built model: it orders the operators, steps
// the simulated clock, and records probes.
package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/kamenik/sigflow/internal/graph"
	"github.com/kamenik/sigflow/internal/model"
	"github.com/kamenik/sigflow/internal/numeric"
	"github.com/kamenik/sigflow/internal/op"
	"github.com/kamenik/sigflow/internal/probe"
	"github.com/kamenik/sigflow/internal/progress"
	"github.com/kamenik/sigflow/internal/signal"
)

// StepError wraps a numeric fault raised during a step. Signal state is
// left exactly as of the last fully executed operator in that step; the
// engine performs no rollback.
type StepError struct {
	Step int64
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Simulator executes a model in fixed dt steps. It is single-threaded
// by contract: ordering is the correctness mechanism, so no two
// operators are ever in flight at once.
type Simulator struct {
	model    *model.Model
	store    *signal.Store
	order    []op.Stepper
	steps    []op.StepFunc
	rec      *probe.Recorder
	view     *probe.View
	dt       float64
	seed     int64
	nSteps   int64
	progress progress.Tracker
}

type Option func(*Simulator)

// WithSeed fixes the simulator-wide seed; without it a seed is drawn
// once at construction and then kept for the simulator's lifetime.
func WithSeed(seed int64) Option {
	return func(s *Simulator) { s.seed = seed }
}

// WithProgress sets the per-step notification collaborator used by Run
// and RunSteps.
func WithProgress(t progress.Tracker) Option {
	return func(s *Simulator) { s.progress = t }
}

// New builds the execution plan for m: materializes every declared
// signal, derives the dependency graph, orders it, compiles the first
// set of step callables, and leaves the simulator ready at t=0. A
// cyclic model is a fatal construction error.
func New(m *model.Model, opts ...Option) (*Simulator, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		model:    m,
		store:    signal.NewStore(),
		dt:       m.Dt,
		seed:     time.Now().UnixNano(),
		progress: progress.None{},
	}
	for _, o := range opts {
		o(s)
	}

	for _, o := range m.Operators {
		op.InitSignals(o, s.store)
	}
	for _, p := range m.Probes {
		s.store.Init(p.Target())
	}

	nodes := make([]graph.Node, len(m.Operators))
	for i, o := range m.Operators {
		nodes[i] = o
	}
	ordered, err := graph.Build(nodes).Toposort()
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", m.Name, err)
	}

	// Ordering-only operators constrain the sort but are dropped from
	// the executable list.
	for _, n := range ordered {
		if st, ok := n.(op.Stepper); ok {
			s.order = append(s.order, st)
		}
	}

	s.rec = probe.NewRecorder(m.Probes)
	s.view = probe.NewView(s.rec)
	s.Reset()
	return s, nil
}

// Dt returns the step duration. It is immutable after construction;
// there is no setter.
func (s *Simulator) Dt() float64 { return s.dt }

// Time returns the current simulated time.
func (s *Simulator) Time() float64 { return s.store.Time() }

// NSteps returns the step counter since the last reset.
func (s *Simulator) NSteps() int64 { return s.nSteps }

// Seed returns the seed in force for the compiled step callables.
func (s *Simulator) Seed() int64 { return s.seed }

// Data returns the read-only probe result view.
func (s *Simulator) Data() *probe.View { return s.view }

// Store exposes the signal buffers for diagnostics and reports.
func (s *Simulator) Store() *signal.Store { return s.store }

// Recorder exposes the probe recorder for diagnostics and reports.
func (s *Simulator) Recorder() *probe.Recorder { return s.rec }

// Step advances the simulation by dt: bumps the step counter, writes
// counter*dt into the time entry, runs every compiled callable in
// scheduler order under the step fault policy, then runs the probe
// sampling pass. The fault policy installed for the callables is
// restored on every exit path.
func (s *Simulator) Step() error {
	s.nSteps++
	s.store.SetTime(float64(s.nSteps) * s.dt)

	restore := numeric.Install(numeric.StepPolicy())
	for _, fn := range s.steps {
		if err := fn(); err != nil {
			restore()
			return &StepError{Step: s.nSteps, Time: s.store.Time(), Err: err}
		}
	}
	restore()

	s.rec.Record(s.store, s.nSteps, s.dt)
	return nil
}

// Run simulates for the given length of simulated time, converting to a
// step count with round(duration/dt).
func (s *Simulator) Run(duration float64) error {
	return s.RunSteps(int(math.Round(duration / s.dt)))
}

// RunSteps simulates n steps, notifying the progress collaborator after
// each completed step. It stops at the first step fault.
func (s *Simulator) RunSteps(n int) error {
	s.progress.Start(n)
	defer s.progress.Finish()
	for i := 0; i < n; i++ {
		if err := s.Step(); err != nil {
			return err
		}
		s.progress.Step()
	}
	return nil
}

// Reset restores the simulator to t=0 with the current seed: the step
// counter and time entry zero, every non-time signal returns to its
// captured initial value, all probe series empty, and the step
// callables are recompiled so operator-private state (filters,
// stochastic processes) is regenerated from scratch.
//
// Randomness is derived from one root source seeded with the simulator
// seed: each runtime operator receives its own child source, seeded
// from the root in scheduler order. Child sources are never shared, and
// equal seeds reproduce every operator's draws bit for bit.
func (s *Simulator) Reset() {
	s.nSteps = 0
	s.store.ResetAll()

	root := rand.New(rand.NewSource(s.seed))
	s.steps = make([]op.StepFunc, len(s.order))
	for i, o := range s.order {
		child := rand.New(rand.NewSource(root.Int63()))
		s.steps[i] = o.MakeStep(s.store, s.dt, child)
	}

	s.rec.Clear()
}

// ResetSeed is Reset with a new simulator-wide seed.
func (s *Simulator) ResetSeed(seed int64) {
	s.seed = seed
	s.Reset()
}

// Trange returns the sample timestamps consistent with the probe
// sampling test, for the given sampling period (0 means every step).
// The range starts at the first timestep dt, not at 0.
func (s *Simulator) Trange(period float64) []float64 {
	p := s.dt
	if period != 0 {
		p = period
	}
	n := int(float64(s.nSteps) * (s.dt / p))
	out := make([]float64, n)
	for i := range out {
		out[i] = p * float64(i+1)
	}
	return out
}
