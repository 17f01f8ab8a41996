package op

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/kamenik/sigflow/internal/numeric"
	"github.com/kamenik/sigflow/internal/signal"
)

// Apply overwrites dst with fn(t, in) each step, where t is the current
// simulated time and in is a snapshot of src (nil src means a pure
// time function). It is the escape hatch for arbitrary inputs and
// transforms.
type Apply struct {
	base
	dst, src *signal.Signal
	fn       func(t float64, in []float64, out []float64)
}

func NewApply(label string, dst, src *signal.Signal, fn func(t float64, in []float64, out []float64)) *Apply {
	b := base{label: label, sets: []*signal.Signal{dst}}
	if src != nil {
		b.reads = []*signal.Signal{src}
	}
	return &Apply{base: b, dst: dst, src: src, fn: fn}
}

func (o *Apply) MakeStep(st *signal.Store, dt float64, rng *rand.Rand) StepFunc {
	dst := st.Get(o.dst)
	out := make([]float64, dst.Len())
	var in []float64
	var src signal.Buffer
	if o.src != nil {
		src = st.Get(o.src)
		in = make([]float64, src.Len())
	}
	return func() error {
		if o.src != nil {
			src.CopyTo(in)
		}
		o.fn(st.Time(), in, out)
		for i, v := range out {
			if err := numeric.Fresh(v, in...); err != nil {
				return fmt.Errorf("%s: %w", o.Label(), err)
			}
			dst.Set(i, v)
		}
		return nil
	}
}

// WhiteNoise overwrites dst each step with independent Gaussian draws.
// Its randomness comes entirely from the per-operator source handed to
// MakeStep, so runs with equal seeds reproduce bit for bit.
type WhiteNoise struct {
	base
	dst       *signal.Signal
	mean, std float64
}

func NewWhiteNoise(dst *signal.Signal, mean, std float64) *WhiteNoise {
	return &WhiteNoise{
		base: base{label: fmt.Sprintf("WhiteNoise(%s)", dst.Name()), sets: []*signal.Signal{dst}},
		dst:  dst,
		mean: mean,
		std:  std,
	}
}

func (o *WhiteNoise) MakeStep(st *signal.Store, dt float64, rng *rand.Rand) StepFunc {
	dst := st.Get(o.dst)
	return func() error {
		for i := 0; i < dst.Len(); i++ {
			dst.Set(i, o.mean+o.std*rng.NormFloat64())
		}
		return nil
	}
}

// Lowpass overwrites dst with a first-order lowpass filtering of src:
// state = a*state + (1-a)*in, a = exp(-dt/tau). The filter state lives
// in the step closure; recompiling the step (on reset) starts the
// filter from zero again.
type Lowpass struct {
	base
	dst, src *signal.Signal
	tau      float64
	coeff    func(dt float64) (float64, float64)
}

// NewLowpass builds a lowpass operator. coeff, when non-nil, supplies
// the (a, b) coefficient pair for a given dt; the builder passes a
// cache-backed implementation here so repeated builds skip the
// precompute.
func NewLowpass(dst, src *signal.Signal, tau float64, coeff func(dt float64) (float64, float64)) *Lowpass {
	if dst.Len() != src.Len() {
		panic(fmt.Sprintf("lowpass %s <- %s: length mismatch", dst.Name(), src.Name()))
	}
	return &Lowpass{
		base: base{
			label: fmt.Sprintf("Lowpass(%s <- %s, tau=%g)", dst.Name(), src.Name(), tau),
			reads: []*signal.Signal{src},
			sets:  []*signal.Signal{dst},
		},
		dst:   dst,
		src:   src,
		tau:   tau,
		coeff: coeff,
	}
}

// LowpassCoefficients computes the discrete coefficients directly.
func LowpassCoefficients(tau, dt float64) (a, b float64) {
	if tau <= 0 {
		return 0, 1
	}
	a = math.Exp(-dt / tau)
	return a, 1 - a
}

func (o *Lowpass) MakeStep(st *signal.Store, dt float64, rng *rand.Rand) StepFunc {
	dst, src := st.Get(o.dst), st.Get(o.src)
	coeff := o.coeff
	if coeff == nil {
		coeff = func(dt float64) (float64, float64) { return LowpassCoefficients(o.tau, dt) }
	}
	a, b := coeff(dt)
	state := make([]float64, dst.Len())
	return func() error {
		for i := range state {
			state[i] = a*state[i] + b*src.At(i)
			dst.Set(i, state[i])
		}
		return nil
	}
}
