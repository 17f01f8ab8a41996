package builder

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/kamenik/sigflow/internal/cache"
	"github.com/kamenik/sigflow/internal/model"
	"github.com/kamenik/sigflow/internal/op"
	"github.com/kamenik/sigflow/internal/probe"
	"github.com/kamenik/sigflow/internal/signal"
)

type buildContext struct {
	spec    *NetworkSpec
	dt      float64
	cache   cache.Cache
	model   *model.Model
	signals map[string]*signal.Signal
}

type opConstructor func(ctx *buildContext, spec OpSpec) (op.Operator, error)

var constructors = map[string]opConstructor{
	"constant":        buildConstant,
	"zero":            buildZero,
	"copy":            buildCopy,
	"sine":            buildSine,
	"noise":           buildNoise,
	"elementwise_inc": buildElementwiseInc,
	"div":             buildDiv,
	"dotinc":          buildDotInc,
	"lowpass":         buildLowpass,
	"barrier":         buildBarrier,
}

// Kinds lists the supported operator kinds.
func Kinds() []string {
	out := make([]string, 0, len(constructors))
	for k := range constructors {
		out = append(out, k)
	}
	return out
}

// Build turns a network description into a ready model: it declares the
// signals (materializing generated initial values through the cache),
// instantiates every operator in declaration order, and registers the
// probes.
func Build(spec *NetworkSpec, dt float64, c cache.Cache) (*model.Model, error) {
	if c == nil {
		c = cache.None{}
	}
	ctx := &buildContext{
		spec:    spec,
		dt:      dt,
		cache:   c,
		model:   model.New(spec.Name, dt),
		signals: make(map[string]*signal.Signal),
	}

	for _, ss := range spec.Signals {
		sig, err := ctx.buildSignal(ss)
		if err != nil {
			return nil, err
		}
		ctx.signals[ss.Name] = sig
		ctx.model.Register(sig)
	}

	for i, os := range spec.Operators {
		build, ok := constructors[os.Kind]
		if !ok {
			return nil, fmt.Errorf("operator %d: unknown kind %q", i, os.Kind)
		}
		o, err := build(ctx, os)
		if err != nil {
			return nil, fmt.Errorf("operator %d (%s): %w", i, os.Kind, err)
		}
		ctx.model.Add(o)
	}

	for _, ps := range spec.Probes {
		target, err := ctx.signal(ps.Signal)
		if err != nil {
			return nil, fmt.Errorf("probe: %w", err)
		}
		ctx.model.AddProbe(probe.New(ps.Signal, target, ps.SampleEvery))
	}

	return ctx.model, nil
}

func (ctx *buildContext) signal(name string) (*signal.Signal, error) {
	s, ok := ctx.signals[name]
	if !ok {
		return nil, fmt.Errorf("unknown signal %q", name)
	}
	return s, nil
}

func (ctx *buildContext) buildSignal(ss SignalSpec) (*signal.Signal, error) {
	if ss.ViewOf != "" {
		base, err := ctx.signal(ss.ViewOf)
		if err != nil {
			return nil, fmt.Errorf("signal %s: %w", ss.Name, err)
		}
		stride := ss.Stride
		if stride == 0 {
			stride = 1
		}
		return base.StridedSlice(ss.Name, ss.Offset, ss.Size, stride), nil
	}

	size := ss.Size
	if ss.Rows > 0 {
		cols := ss.Cols
		if cols == 0 {
			cols = 1
		}
		size = ss.Rows * cols
	}
	if size <= 0 {
		return nil, fmt.Errorf("signal %s: no size", ss.Name)
	}

	values := ss.Values
	switch {
	case ss.Gen != nil:
		var err error
		values, err = ctx.generate(ss.Name, size, ss.Gen)
		if err != nil {
			return nil, err
		}
	case values == nil:
		values = make([]float64, size)
	case len(values) != size:
		return nil, fmt.Errorf("signal %s: %d values for size %d", ss.Name, len(values), size)
	}

	if ss.Rows > 0 && ss.Cols > 0 {
		return signal.NewMatrix(ss.Name, ss.Rows, ss.Cols, values), nil
	}
	return signal.New(ss.Name, values), nil
}

// generate materializes deterministic initial values for a signal,
// consulting the cache first. The expensive part in a real model is a
// solver pass; the key covers everything that determines the result.
func (ctx *buildContext) generate(name string, size int, g *GenSpec) ([]float64, error) {
	switch g.Kind {
	case "gaussian":
		key := cache.Key("gaussian", size, g.Std, g.Seed)
		if v, ok := ctx.cache.Get(key); ok && len(v) == size {
			return v, nil
		}
		rng := rand.New(rand.NewSource(g.Seed))
		v := make([]float64, size)
		for i := range v {
			v[i] = g.Std * rng.NormFloat64()
		}
		ctx.cache.Put(key, v)
		return v, nil
	default:
		return nil, fmt.Errorf("signal %s: unknown generator %q", name, g.Kind)
	}
}

func buildConstant(ctx *buildContext, spec OpSpec) (op.Operator, error) {
	dst, err := ctx.signal(spec.Target)
	if err != nil {
		return nil, err
	}
	return op.NewReset(dst, spec.Value), nil
}

func buildZero(ctx *buildContext, spec OpSpec) (op.Operator, error) {
	dst, err := ctx.signal(spec.Target)
	if err != nil {
		return nil, err
	}
	return op.NewReset(dst, 0), nil
}

func buildCopy(ctx *buildContext, spec OpSpec) (op.Operator, error) {
	dst, err := ctx.signal(spec.Target)
	if err != nil {
		return nil, err
	}
	src, err := ctx.signal(spec.Source)
	if err != nil {
		return nil, err
	}
	return op.NewCopy(dst, src), nil
}

func buildSine(ctx *buildContext, spec OpSpec) (op.Operator, error) {
	dst, err := ctx.signal(spec.Target)
	if err != nil {
		return nil, err
	}
	amp, freq := spec.Amplitude, spec.Frequency
	label := fmt.Sprintf("Sine(%s, %gHz)", dst.Name(), freq)
	return op.NewApply(label, dst, nil, func(t float64, _, out []float64) {
		v := amp * math.Sin(2*math.Pi*freq*t)
		for i := range out {
			out[i] = v
		}
	}), nil
}

func buildNoise(ctx *buildContext, spec OpSpec) (op.Operator, error) {
	dst, err := ctx.signal(spec.Target)
	if err != nil {
		return nil, err
	}
	return op.NewWhiteNoise(dst, spec.Mean, spec.Std), nil
}

func buildElementwiseInc(ctx *buildContext, spec OpSpec) (op.Operator, error) {
	dst, err := ctx.signal(spec.Target)
	if err != nil {
		return nil, err
	}
	a, err := ctx.signal(spec.A)
	if err != nil {
		return nil, err
	}
	b, err := ctx.signal(spec.B)
	if err != nil {
		return nil, err
	}
	return op.NewElementwiseInc(dst, a, b), nil
}

func buildDiv(ctx *buildContext, spec OpSpec) (op.Operator, error) {
	dst, err := ctx.signal(spec.Target)
	if err != nil {
		return nil, err
	}
	a, err := ctx.signal(spec.A)
	if err != nil {
		return nil, err
	}
	b, err := ctx.signal(spec.B)
	if err != nil {
		return nil, err
	}
	return op.NewElementwiseDiv(dst, a, b), nil
}

func buildDotInc(ctx *buildContext, spec OpSpec) (op.Operator, error) {
	y, err := ctx.signal(spec.Target)
	if err != nil {
		return nil, err
	}
	a, err := ctx.signal(spec.Matrix)
	if err != nil {
		return nil, err
	}
	x, err := ctx.signal(spec.Vector)
	if err != nil {
		return nil, err
	}
	return op.NewDotInc(a, x, y), nil
}

func buildLowpass(ctx *buildContext, spec OpSpec) (op.Operator, error) {
	dst, err := ctx.signal(spec.Target)
	if err != nil {
		return nil, err
	}
	src, err := ctx.signal(spec.Source)
	if err != nil {
		return nil, err
	}
	if spec.Tau < 0 {
		return nil, fmt.Errorf("negative tau %g", spec.Tau)
	}
	c := ctx.cache
	tau := spec.Tau
	coeff := func(dt float64) (float64, float64) {
		key := cache.Key("lowpass", tau, dt)
		if v, ok := c.Get(key); ok && len(v) == 2 {
			return v[0], v[1]
		}
		a, b := op.LowpassCoefficients(tau, dt)
		c.Put(key, []float64{a, b})
		return a, b
	}
	return op.NewLowpass(dst, src, tau, coeff), nil
}

func buildBarrier(ctx *buildContext, spec OpSpec) (op.Operator, error) {
	var after, before []*signal.Signal
	for _, name := range spec.After {
		s, err := ctx.signal(name)
		if err != nil {
			return nil, err
		}
		after = append(after, s)
	}
	for _, name := range spec.Before {
		s, err := ctx.signal(name)
		if err != nil {
			return nil, err
		}
		before = append(before, s)
	}
	label := fmt.Sprintf("Barrier(%v -> %v)", spec.After, spec.Before)
	return op.NewBarrier(label, after, before), nil
}
