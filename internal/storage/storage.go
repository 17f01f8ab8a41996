// Package storage archives completed runs: metadata plus the recorded
// probe series, behind interchangeable filesystem and sqlite backends.
package storage

import (
	"time"

	"github.com/kamenik/sigflow/internal/engine"
)

type RunMetadata struct {
	ID        string    `json:"id"`
	Network   string    `json:"network"`
	Timestamp time.Time `json:"timestamp"`
	Seed      int64     `json:"seed"`
	Dt        float64   `json:"dt"`
	Duration  float64   `json:"duration"`
	Steps     int64     `json:"steps"`
}

type ProbeSeries struct {
	Name        string      `json:"name"`
	SampleEvery float64     `json:"sample_every"`
	Times       []float64   `json:"times"`
	Samples     [][]float64 `json:"samples"`
}

type Run struct {
	RunMetadata
	Probes []ProbeSeries `json:"probes"`
}

type Store interface {
	Init() error
	Save(run *Run) error
	List() ([]RunMetadata, error)
	Load(id string) (*Run, error)
	Close() error
}

// Capture assembles an archivable Run from a simulator that has
// finished stepping.
func Capture(id, network string, sim *engine.Simulator) *Run {
	run := &Run{
		RunMetadata: RunMetadata{
			ID:        id,
			Network:   network,
			Timestamp: time.Now(),
			Seed:      sim.Seed(),
			Dt:        sim.Dt(),
			Duration:  sim.Time(),
			Steps:     sim.NSteps(),
		},
	}
	data := sim.Data()
	for _, p := range data.Probes() {
		series := data.MustSeries(p)
		ps := ProbeSeries{
			Name:        p.Name(),
			SampleEvery: p.SampleEvery(),
			Times:       sim.Trange(p.SampleEvery()),
			Samples:     make([][]float64, series.Len()),
		}
		for i := range ps.Samples {
			ps.Samples[i] = series.Row(i)
		}
		run.Probes = append(run.Probes, ps)
	}
	return run
}
