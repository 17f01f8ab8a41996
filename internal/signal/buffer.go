package signal

// Buffer addresses a contiguous-or-strided region of a base signal's
// arena. Views over the same base observe each other's writes
// immediately; a Buffer never copies on access.
type Buffer struct {
	data   []float64
	offset int
	stride int
	n      int
}

func (b Buffer) Len() int { return b.n }

func (b Buffer) At(i int) float64 { return b.data[b.offset+i*b.stride] }

func (b Buffer) Set(i int, v float64) { b.data[b.offset+i*b.stride] = v }

func (b Buffer) Add(i int, v float64) { b.data[b.offset+i*b.stride] += v }

// Fill overwrites every element with v.
func (b Buffer) Fill(v float64) {
	for i := 0; i < b.n; i++ {
		b.data[b.offset+i*b.stride] = v
	}
}

// CopyFrom overwrites the buffer with src. len(src) must be b.Len().
func (b Buffer) CopyFrom(src []float64) {
	for i := 0; i < b.n; i++ {
		b.data[b.offset+i*b.stride] = src[i]
	}
}

// CopyTo writes the current contents into dst. len(dst) must be b.Len().
func (b Buffer) CopyTo(dst []float64) {
	for i := 0; i < b.n; i++ {
		dst[i] = b.data[b.offset+i*b.stride]
	}
}

// Snapshot returns a fresh copy of the current contents.
func (b Buffer) Snapshot() []float64 {
	out := make([]float64, b.n)
	for i := range out {
		out[i] = b.data[b.offset+i*b.stride]
	}
	return out
}

// CopyBuffer overwrites dst with src elementwise. Lengths must match.
func CopyBuffer(dst, src Buffer) {
	for i := 0; i < dst.n; i++ {
		dst.Set(i, src.At(i))
	}
}
