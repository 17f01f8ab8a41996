// Package op defines the operator capability contract and the concrete
// operator set the builder wires into models.
//
// An operator declares the signals it reads, fully overwrites, and
// accumulates into; those three sets are the only source of execution
// ordering. Operators with runtime behavior additionally implement
// Stepper; operators without it exist purely to constrain the order of
// others.
package op

import (
	"math/rand"

	"github.com/kamenik/sigflow/internal/signal"
)

// StepFunc advances one operator by one simulation step. It is compiled
// once per reset and may retain private state across calls; that state
// is discarded when the step is recompiled.
type StepFunc func() error

// Operator declares signal access. Ordering is derived from overlap of
// these sets through base-signal identity.
type Operator interface {
	Label() string
	Reads() []*signal.Signal
	Sets() []*signal.Signal
	Incs() []*signal.Signal
}

// Stepper is the runtime capability: given the buffer store, the step
// duration, and a deterministic random source scoped to this operator,
// produce the operator's one-step callable. Private mutable state must
// be captured by this call's closure, never by the operator value, so
// recompiling fully regenerates it.
type Stepper interface {
	Operator
	MakeStep(st *signal.Store, dt float64, rng *rand.Rand) StepFunc
}

type base struct {
	label string
	reads []*signal.Signal
	sets  []*signal.Signal
	incs  []*signal.Signal
}

func (b *base) Label() string           { return b.label }
func (b *base) Reads() []*signal.Signal { return b.reads }
func (b *base) Sets() []*signal.Signal  { return b.sets }
func (b *base) Incs() []*signal.Signal  { return b.incs }
func (b *base) String() string          { return b.label }

// InitSignals materializes every signal an operator declares. The
// engine calls this for each operator before any step is compiled.
func InitSignals(o Operator, st *signal.Store) {
	for _, s := range o.Reads() {
		st.Init(s)
	}
	for _, s := range o.Sets() {
		st.Init(s)
	}
	for _, s := range o.Incs() {
		st.Init(s)
	}
}
