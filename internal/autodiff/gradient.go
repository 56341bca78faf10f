package autodiff

import (
	"math"

	"github.com/born-ml/dagrad/internal/tensor"
)

// accumulator collects the gradient of one node.
//
// The dense buffer is allocated on first use and kept across passes; zeroing only
// clears hasDense, and the buffer is wiped when it is next handed out. Parameters
// that feed a Lookup also carry a sparse part.
type accumulator struct {
	shape    tensor.Shape
	dense    *tensor.Tensor
	hasDense bool
	sparse   *SparseGradient
}

func newAccumulator(shape tensor.Shape) *accumulator {
	return &accumulator{shape: shape}
}

// target returns the dense buffer to add into, zeroed if it held a stale gradient.
func (a *accumulator) target() *tensor.Tensor {
	if a.dense == nil {
		a.dense = tensor.Zeros(a.shape)
	} else if !a.hasDense {
		a.dense.Zero()
	}
	a.hasDense = true
	return a.dense
}

// sparseTarget returns the sparse part, creating it on first use.
func (a *accumulator) sparseTarget() *SparseGradient {
	if a.sparse == nil {
		a.sparse = NewSparseGradient(a.shape)
	}
	return a.sparse
}

// denseValue returns the dense part or nil if nothing was accumulated.
func (a *accumulator) denseValue() *tensor.Tensor {
	if !a.hasDense {
		return nil
	}
	return a.dense
}

func (a *accumulator) zero() {
	a.hasDense = false
	if a.sparse != nil {
		a.sparse.Clear()
	}
}

func (a *accumulator) touched() bool {
	return a.hasDense || (a.sparse != nil && a.sparse.Len() > 0)
}

func (a *accumulator) clamp(lo, hi float64) {
	if a.hasDense {
		clampSlice(a.dense.Data(), lo, hi)
	}
	if a.sparse != nil {
		a.sparse.Clamp(lo, hi)
	}
}

func (a *accumulator) byteSize() int {
	size := 0
	if a.dense != nil {
		size += a.dense.ByteSize()
	}
	if a.sparse != nil {
		size += a.sparse.ByteSize()
	}
	return size
}

// Contribution is one sparse gradient update: Rows[i] belongs to table row Indices[i].
type Contribution struct {
	Indices []int
	Rows    *tensor.Tensor // (len(Indices), width)
}

// SparseGradient is the gradient of an embedding table as a list of row updates.
//
// Indices may repeat within and across contributions; they accumulate when the
// gradient is coalesced or added into a dense table. Buffers are reused across
// passes after Clear.
type SparseGradient struct {
	table    tensor.Shape
	contribs []Contribution
	n        int // Active contributions; entries past n are spare buffers.
}

// NewSparseGradient creates an empty sparse gradient for a (rows, width) table.
func NewSparseGradient(table tensor.Shape) *SparseGradient {
	return &SparseGradient{table: table.Clone()}
}

// TableShape returns the shape of the table the gradient belongs to.
func (s *SparseGradient) TableShape() tensor.Shape {
	return s.table
}

// AddRows records rows (one per index) as a new contribution. Both are copied.
func (s *SparseGradient) AddRows(indices []int, rows *tensor.Tensor) {
	if s.n == len(s.contribs) {
		s.contribs = append(s.contribs, Contribution{})
	}
	c := &s.contribs[s.n]
	c.Indices = append(c.Indices[:0], indices...)
	if c.Rows == nil || !c.Rows.Shape().Equal(rows.Shape()) {
		c.Rows = rows.Clone()
	} else {
		copy(c.Rows.Data(), rows.Data())
	}
	s.n++
}

// Len returns the number of contributions.
func (s *SparseGradient) Len() int {
	return s.n
}

// Contributions returns the active contributions. The slice and the tensors in it
// are owned by the gradient and valid until the next Clear.
func (s *SparseGradient) Contributions() []Contribution {
	return s.contribs[:s.n]
}

// Coalesce sums contributions per unique row index.
func (s *SparseGradient) Coalesce() map[int][]float64 {
	out := make(map[int][]float64)
	for _, c := range s.Contributions() {
		for i, idx := range c.Indices {
			row := c.Rows.Row(i)
			acc, ok := out[idx]
			if !ok {
				acc = make([]float64, len(row))
				out[idx] = acc
			}
			for j, v := range row {
				acc[j] += v
			}
		}
	}
	return out
}

// AddTo scatter-adds every contribution into dense, which must have the table shape.
func (s *SparseGradient) AddTo(dense *tensor.Tensor) error {
	if !dense.Shape().Equal(s.table) {
		return tensor.NewShapeError("sparse_add", "destination must have the table shape", dense.Shape(), s.table)
	}
	for _, c := range s.Contributions() {
		for i, idx := range c.Indices {
			dst, src := dense.Row(idx), c.Rows.Row(i)
			for j, v := range src {
				dst[j] += v
			}
		}
	}
	return nil
}

// Clear drops all contributions, keeping their buffers for reuse.
func (s *SparseGradient) Clear() {
	s.n = 0
}

// Clamp limits every stored value to [lo, hi].
func (s *SparseGradient) Clamp(lo, hi float64) {
	for _, c := range s.Contributions() {
		clampSlice(c.Rows.Data(), lo, hi)
	}
}

// ByteSize returns the memory held by the contribution buffers, spare ones included.
func (s *SparseGradient) ByteSize() int {
	size := 0
	for _, c := range s.contribs {
		size += 8 * cap(c.Indices)
		if c.Rows != nil {
			size += c.Rows.ByteSize()
		}
	}
	return size
}

func clampSlice(data []float64, lo, hi float64) {
	for i, v := range data {
		data[i] = math.Min(math.Max(v, lo), hi)
	}
}
