// Package builder translates a high-level network description into the
// operator/signal/probe model the engine consumes. It runs once per
// construction; the engine never re-invokes it.
package builder

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NetworkSpec is the yaml-facing description of a model.
type NetworkSpec struct {
	Name      string       `yaml:"name"`
	Signals   []SignalSpec `yaml:"signals"`
	Operators []OpSpec     `yaml:"operators"`
	Probes    []ProbeSpec  `yaml:"probes"`
}

type SignalSpec struct {
	Name   string    `yaml:"name"`
	Size   int       `yaml:"size"`
	Rows   int       `yaml:"rows"`
	Cols   int       `yaml:"cols"`
	Values []float64 `yaml:"values"`
	ViewOf string    `yaml:"view_of"`
	Offset int       `yaml:"offset"`
	Stride int       `yaml:"stride"`
	Gen    *GenSpec  `yaml:"generate"`
}

// GenSpec asks the builder to generate initial values, with the result
// memoized in the coefficient cache across builds.
type GenSpec struct {
	Kind string  `yaml:"kind"`
	Std  float64 `yaml:"std"`
	Seed int64   `yaml:"seed"`
}

type OpSpec struct {
	Kind      string   `yaml:"kind"`
	Target    string   `yaml:"target"`
	Source    string   `yaml:"source"`
	Matrix    string   `yaml:"matrix"`
	Vector    string   `yaml:"vector"`
	A         string   `yaml:"a"`
	B         string   `yaml:"b"`
	Value     float64  `yaml:"value"`
	Amplitude float64  `yaml:"amplitude"`
	Frequency float64  `yaml:"frequency"`
	Mean      float64  `yaml:"mean"`
	Std       float64  `yaml:"std"`
	Tau       float64  `yaml:"tau"`
	After     []string `yaml:"after"`
	Before    []string `yaml:"before"`
}

type ProbeSpec struct {
	Signal      string  `yaml:"signal"`
	SampleEvery float64 `yaml:"sample_every"`
}

// Load reads a network description from a yaml file.
func Load(path string) (*NetworkSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	spec := &NetworkSpec{}
	if err := yaml.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("network %s: %w", path, err)
	}
	if spec.Name == "" {
		spec.Name = path
	}
	return spec, nil
}

// Save writes a network description to a yaml file.
func Save(path string, spec *NetworkSpec) error {
	data, err := yaml.Marshal(spec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
