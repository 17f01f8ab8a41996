// Package model is the boundary between the builder and the execution
// core: a fully populated operator set, named signal groups, probes,
// and a fixed dt. The core consumes a Model and never re-invokes the
// builder.
package model

import (
	"fmt"

	"github.com/kamenik/sigflow/internal/op"
	"github.com/kamenik/sigflow/internal/probe"
	"github.com/kamenik/sigflow/internal/signal"
)

type Model struct {
	Name      string
	Dt        float64
	Operators []op.Operator
	Probes    []*probe.Probe

	signals map[string]*signal.Signal
}

func New(name string, dt float64) *Model {
	return &Model{Name: name, Dt: dt, signals: make(map[string]*signal.Signal)}
}

func (m *Model) Add(ops ...op.Operator) {
	m.Operators = append(m.Operators, ops...)
}

func (m *Model) AddProbe(p *probe.Probe) {
	m.Probes = append(m.Probes, p)
}

// Register makes a signal addressable by name, for probes and
// diagnostics declared against the high-level description.
func (m *Model) Register(s *signal.Signal) *signal.Signal {
	m.signals[s.Name()] = s
	return s
}

func (m *Model) Signal(name string) (*signal.Signal, bool) {
	s, ok := m.signals[name]
	return s, ok
}

func (m *Model) Validate() error {
	if m.Dt <= 0 {
		return fmt.Errorf("model %s: dt must be positive, got %g", m.Name, m.Dt)
	}
	if len(m.Operators) == 0 {
		return fmt.Errorf("model %s: no operators", m.Name)
	}
	return nil
}
