// Package tensor provides the dense numeric buffer used by the autodiff engine.
//
// A Tensor is a shape plus contiguous row-major float64 storage. The invariant
// len(Data()) == Shape().NumElements() is established by every constructor and
// preserved by every method; kernels in internal/backend/cpu operate on the raw
// slices directly.
package tensor

import (
	"fmt"
	"math"
	"strings"
)

// Tensor is a dense n-dimensional array of float64 values.
type Tensor struct {
	shape Shape
	data  []float64
}

// New creates a tensor of the given shape backed by data.
// The slice is used as is (not copied); its length must match the shape.
func New(shape Shape, data []float64) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, NewShapeError("new",
			fmt.Sprintf("got %d values for %d elements", len(data), shape.NumElements()), shape)
	}
	return &Tensor{shape: shape.Clone(), data: data}, nil
}

// Zeros allocates a zero-filled tensor. It panics on an invalid shape.
func Zeros(shape Shape) *Tensor {
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	return &Tensor{shape: shape.Clone(), data: make([]float64, shape.NumElements())}
}

// Full allocates a tensor with every element set to v.
func Full(shape Shape, v float64) *Tensor {
	t := Zeros(shape)
	t.Fill(v)
	return t
}

// Scalar creates a rank-0 tensor.
func Scalar(v float64) *Tensor {
	return &Tensor{shape: Shape{}, data: []float64{v}}
}

// FromRows builds a rank-2 tensor from equally sized rows.
func FromRows(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, NewShapeError("from_rows", "need at least one non-empty row")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, NewShapeError("from_rows",
				fmt.Sprintf("row %d has %d values, row 0 has %d", i, len(row), cols))
		}
		data = append(data, row...)
	}
	return &Tensor{shape: Shape{len(rows), cols}, data: data}, nil
}

// Shape returns the tensor's shape. Callers must not modify it.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the underlying storage.
// WARNING: Direct access to underlying memory. Use with caution.
func (t *Tensor) Data() []float64 {
	return t.data
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// ByteSize returns the storage size in bytes.
func (t *Tensor) ByteSize() int {
	return len(t.data) * 8
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape.Clone(), data: data}
}

// CopyFrom overwrites t with the contents of src. Shapes must be equal.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if !t.shape.Equal(src.shape) {
		return NewShapeError("copy", "destination and source must have the same shape", t.shape, src.shape)
	}
	copy(t.data, src.data)
	return nil
}

// Fill sets every element to v.
func (t *Tensor) Fill(v float64) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Zero sets every element to 0.
func (t *Tensor) Zero() {
	clear(t.data)
}

// At returns the element at the given coordinates.
func (t *Tensor) At(idx ...int) float64 {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor.At: got %d coordinates for rank %d", len(idx), len(t.shape)))
	}
	strides := t.shape.ComputeStrides()
	offset := 0
	for i, c := range idx {
		if c < 0 || c >= t.shape[i] {
			panic(fmt.Sprintf("tensor.At: coordinate %d out of range for dimension %d of size %d", c, i, t.shape[i]))
		}
		offset += c * strides[i]
	}
	return t.data[offset]
}

// Row returns the storage of row i (a view, not a copy).
func (t *Tensor) Row(i int) []float64 {
	size := t.shape.RowSize()
	return t.data[i*size : (i+1)*size]
}

// Equal reports whether both tensors have the same shape and bit-identical values.
func (t *Tensor) Equal(other *Tensor) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i, v := range t.data {
		if math.Float64bits(v) != math.Float64bits(other.data[i]) {
			return false
		}
	}
	return true
}

// NonFinite returns the number of NaN or Inf elements.
func (t *Tensor) NonFinite() int {
	bad := 0
	for _, v := range t.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bad++
		}
	}
	return bad
}

// String renders a short description, e.g. "Tensor(2, 3)[1 2 3 ...]".
func (t *Tensor) String() string {
	const maxShown = 8
	var b strings.Builder
	b.WriteString("Tensor")
	b.WriteString(t.shape.String())
	b.WriteByte('[')
	for i, v := range t.data {
		if i == maxShown {
			b.WriteString(" ...")
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%g", v)
	}
	b.WriteByte(']')
	return b.String()
}
