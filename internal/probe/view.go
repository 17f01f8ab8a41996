package probe

import (
	"errors"
	"fmt"
)

// ErrUnknownProbe is returned when a view is asked for a probe that was
// never registered with its recorder.
var ErrUnknownProbe = errors.New("probe: not registered")

// Series is an immutable matrix of samples: one row per recorded
// snapshot, one column per element of the probed signal. It is
// materialized from a recorder's snapshot list on first access and
// detached from later recording; there is no mutating accessor.
type Series struct {
	rows, cols int
	data       []float64
}

func (s *Series) Len() int  { return s.rows }
func (s *Series) Dims() int { return s.cols }

func (s *Series) At(row, col int) float64 {
	return s.data[row*s.cols+col]
}

// Row returns a copy of one snapshot.
func (s *Series) Row(i int) []float64 {
	out := make([]float64, s.cols)
	copy(out, s.data[i*s.cols:(i+1)*s.cols])
	return out
}

// Column returns a copy of one element's trajectory over all samples.
func (s *Series) Column(j int) []float64 {
	out := make([]float64, s.rows)
	for i := range out {
		out[i] = s.data[i*s.cols+j]
	}
	return out
}

// SeriesFromColumn wraps an already-extracted single-element series,
// so archived data can reuse the series-consuming helpers.
func SeriesFromColumn(data []float64) *Series {
	d := make([]float64, len(data))
	copy(d, data)
	return &Series{rows: len(d), cols: 1, data: d}
}

// View is the read-only mapping from probe to series. Conversion from
// the recorder's append-only snapshot lists happens on access per probe
// and is cached; a cached entry is reused only while its probe has no
// new samples, and the whole cache drops when the recorder is cleared
// (reset), so unread probes never pay for conversion.
type View struct {
	rec   *Recorder
	cache map[*Probe]*Series
	gen   uint64
}

func NewView(rec *Recorder) *View {
	return &View{rec: rec, cache: make(map[*Probe]*Series)}
}

func (v *View) Len() int         { return len(v.rec.probes) }
func (v *View) Probes() []*Probe { return v.rec.Probes() }

// Series materializes the samples recorded for p.
func (v *View) Series(p *Probe) (*Series, error) {
	if v.gen != v.rec.gen {
		v.cache = make(map[*Probe]*Series)
		v.gen = v.rec.gen
	}
	rows, ok := v.rec.series[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProbe, p.Name())
	}
	if s, ok := v.cache[p]; ok && s.rows == len(rows) {
		return s, nil
	}
	cols := p.target.Len()
	s := &Series{rows: len(rows), cols: cols, data: make([]float64, len(rows)*cols)}
	for i, row := range rows {
		copy(s.data[i*cols:], row)
	}
	v.cache[p] = s
	return s, nil
}

// MustSeries is Series for callers that know p is registered; it panics
// on misuse.
func (v *View) MustSeries(p *Probe) *Series {
	s, err := v.Series(p)
	if err != nil {
		panic(err)
	}
	return s
}
