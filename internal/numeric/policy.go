// Package numeric implements the floating-point fault policy the
// execution loop installs around operator step callables: indeterminate
// forms raise, division-by-zero infinities propagate silently.
package numeric

import (
	"errors"
	"math"
)

// ErrInvalid indicates an indeterminate floating-point result (a fresh
// NaN, e.g. 0/0 or Inf-Inf) produced while the invalid-raise policy was
// installed.
var ErrInvalid = errors.New("numeric: invalid floating-point operation")

type Mode int

const (
	Ignore Mode = iota
	Raise
)

// Policy controls how checked operations treat invalid results and
// division by zero.
type Policy struct {
	Invalid Mode
	Divide  Mode
}

// StepPolicy is the policy in force while step callables execute:
// invalid operations raise, division by zero yields infinities.
func StepPolicy() Policy { return Policy{Invalid: Raise, Divide: Ignore} }

// The engine is single-threaded by contract, so the installed policy is
// a package variable managed with a save/restore scope rather than a
// lock.
var current = Policy{}

// Install sets the active policy and returns a restore function that
// reinstates whatever was in force before. Callers must invoke the
// restore on every exit path, normal or error.
func Install(p Policy) (restore func()) {
	prev := current
	current = p
	return func() { current = prev }
}

// Current returns the active policy.
func Current() Policy { return current }

// Div divides x by y under the active policy. x/0 with x != 0 yields
// ±Inf (or an error if the divide policy raises); 0/0 is invalid.
func Div(x, y float64) (float64, error) {
	if y == 0 {
		if x == 0 || math.IsNaN(x) {
			if current.Invalid == Raise {
				return 0, ErrInvalid
			}
			return math.NaN(), nil
		}
		if current.Divide == Raise {
			return 0, errors.New("numeric: division by zero")
		}
		return math.Inf(sign(x)), nil
	}
	return x / y, nil
}

// Check validates a freshly computed value: NaN is an invalid result
// under the raise policy. Call it on operator outputs whose inputs were
// not already NaN; NaNs that merely propagate from inputs are not
// re-raised.
func Check(v float64) error {
	if current.Invalid == Raise && math.IsNaN(v) {
		return ErrInvalid
	}
	return nil
}

// Fresh validates out as the result of an operation over ins: a NaN
// output raises only when no input was already NaN. This mirrors the
// invalid flag of hardware FP: propagating an existing NaN is not a new
// fault.
func Fresh(out float64, ins ...float64) error {
	if current.Invalid != Raise || !math.IsNaN(out) {
		return nil
	}
	for _, in := range ins {
		if math.IsNaN(in) {
			return nil
		}
	}
	return ErrInvalid
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}
