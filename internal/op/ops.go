package op

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/kamenik/sigflow/internal/numeric"
	"github.com/kamenik/sigflow/internal/signal"
)

// Reset overwrites its destination with a constant at the start of
// every step, so incrementers downstream accumulate onto a known value.
type Reset struct {
	base
	dst   *signal.Signal
	value float64
}

func NewReset(dst *signal.Signal, value float64) *Reset {
	return &Reset{
		base:  base{label: fmt.Sprintf("Reset(%s)", dst.Name()), sets: []*signal.Signal{dst}},
		dst:   dst,
		value: value,
	}
}

func (o *Reset) MakeStep(st *signal.Store, dt float64, rng *rand.Rand) StepFunc {
	dst := st.Get(o.dst)
	v := o.value
	return func() error {
		dst.Fill(v)
		return nil
	}
}

// Copy overwrites dst with src each step.
type Copy struct {
	base
	dst, src *signal.Signal
}

func NewCopy(dst, src *signal.Signal) *Copy {
	if dst.Len() != src.Len() {
		panic(fmt.Sprintf("copy %s <- %s: length mismatch %d != %d",
			dst.Name(), src.Name(), dst.Len(), src.Len()))
	}
	return &Copy{
		base: base{
			label: fmt.Sprintf("Copy(%s <- %s)", dst.Name(), src.Name()),
			reads: []*signal.Signal{src},
			sets:  []*signal.Signal{dst},
		},
		dst: dst,
		src: src,
	}
}

func (o *Copy) MakeStep(st *signal.Store, dt float64, rng *rand.Rand) StepFunc {
	dst, src := st.Get(o.dst), st.Get(o.src)
	return func() error {
		signal.CopyBuffer(dst, src)
		return nil
	}
}

// ElementwiseInc accumulates a*b elementwise into dst. Scalar a or b
// broadcasts over the other operand.
type ElementwiseInc struct {
	base
	dst, a, b *signal.Signal
}

func NewElementwiseInc(dst, a, b *signal.Signal) *ElementwiseInc {
	return &ElementwiseInc{
		base: base{
			label: fmt.Sprintf("ElementwiseInc(%s += %s * %s)", dst.Name(), a.Name(), b.Name()),
			reads: []*signal.Signal{a, b},
			incs:  []*signal.Signal{dst},
		},
		dst: dst,
		a:   a,
		b:   b,
	}
}

func (o *ElementwiseInc) MakeStep(st *signal.Store, dt float64, rng *rand.Rand) StepFunc {
	dst, a, b := st.Get(o.dst), st.Get(o.a), st.Get(o.b)
	return func() error {
		for i := 0; i < dst.Len(); i++ {
			av, bv := broadcast(a, i), broadcast(b, i)
			v := av * bv
			if err := numeric.Fresh(v, av, bv); err != nil {
				return fmt.Errorf("%s: %w", o.Label(), err)
			}
			dst.Add(i, v)
		}
		return nil
	}
}

func broadcast(b signal.Buffer, i int) float64 {
	if b.Len() == 1 {
		return b.At(0)
	}
	return b.At(i)
}

// DotInc accumulates the matrix-vector product A·x into y.
type DotInc struct {
	base
	a, x, y *signal.Signal
}

func NewDotInc(a, x, y *signal.Signal) *DotInc {
	if a.Cols() != x.Len() || a.Rows() != y.Len() {
		panic(fmt.Sprintf("dotinc %s += %s . %s: shape mismatch", y.Name(), a.Name(), x.Name()))
	}
	return &DotInc{
		base: base{
			label: fmt.Sprintf("DotInc(%s += %s . %s)", y.Name(), a.Name(), x.Name()),
			reads: []*signal.Signal{a, x},
			incs:  []*signal.Signal{y},
		},
		a: a,
		x: x,
		y: y,
	}
}

func (o *DotInc) MakeStep(st *signal.Store, dt float64, rng *rand.Rand) StepFunc {
	a, x, y := st.Get(o.a), st.Get(o.x), st.Get(o.y)
	rows, cols := o.a.Rows(), o.a.Cols()
	return func() error {
		for r := 0; r < rows; r++ {
			sum := 0.0
			nanIn := false
			for c := 0; c < cols; c++ {
				av, xv := a.At(r*cols+c), x.At(c)
				nanIn = nanIn || math.IsNaN(av) || math.IsNaN(xv)
				sum += av * xv
			}
			if !nanIn {
				if err := numeric.Check(sum); err != nil {
					return fmt.Errorf("%s: %w", o.Label(), err)
				}
			}
			y.Add(r, sum)
		}
		return nil
	}
}

// ElementwiseDiv overwrites dst with a/b elementwise. Scalar a or b
// broadcasts over the other operand. Division goes through the active
// fault policy: x/0 with x != 0 degrades to ±Inf, 0/0 raises.
type ElementwiseDiv struct {
	base
	dst, a, b *signal.Signal
}

func NewElementwiseDiv(dst, a, b *signal.Signal) *ElementwiseDiv {
	return &ElementwiseDiv{
		base: base{
			label: fmt.Sprintf("ElementwiseDiv(%s <- %s / %s)", dst.Name(), a.Name(), b.Name()),
			reads: []*signal.Signal{a, b},
			sets:  []*signal.Signal{dst},
		},
		dst: dst,
		a:   a,
		b:   b,
	}
}

func (o *ElementwiseDiv) MakeStep(st *signal.Store, dt float64, rng *rand.Rand) StepFunc {
	dst, a, b := st.Get(o.dst), st.Get(o.a), st.Get(o.b)
	return func() error {
		for i := 0; i < dst.Len(); i++ {
			v, err := numeric.Div(broadcast(a, i), broadcast(b, i))
			if err != nil {
				return fmt.Errorf("%s: %w", o.Label(), err)
			}
			dst.Set(i, v)
		}
		return nil
	}
}

// Barrier carries no runtime behavior; it exists only to order other
// operators, by declaring reads on the signals it must wait for and
// sets on the signals it must precede access to.
type Barrier struct {
	base
}

func NewBarrier(label string, after, before []*signal.Signal) *Barrier {
	return &Barrier{base: base{label: label, reads: after, sets: before}}
}
