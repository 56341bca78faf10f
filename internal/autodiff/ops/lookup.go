package ops

import (
	"math"

	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// lookupRule represents an embedding lookup: output[i] = table[indices[i]].
//
// Operands are the table (V, D) and an index leaf (N) holding integral
// values in [0, V). Output is (N, D).
//
// Backward:
//
//	For each index i, grad_output[i] flows to row indices[i] of the table.
//	A sparse target receives the (indices, rows) pair as is; a dense target
//	gets a scatter-add. Either way repeated indices accumulate.
//
// Example:
//
//	indices = [0, 1, 0]  // index 0 appears twice
//	grad_output = [[1,2], [3,4], [5,6]]
//	grad_table[0] = [1,2] + [5,6] = [6,8]  // Accumulated!
//	grad_table[1] = [3,4]
var lookupRule = Rule{
	Name:           "lookup",
	Arity:          2,
	Differentiable: true,
	Shape: func(_ *Attrs, in []tensor.Shape) (tensor.Shape, error) {
		table, idx := in[0], in[1]
		if len(table) != 2 {
			return nil, tensor.NewShapeError("lookup", "table must be 2D (rows, width)", table, idx)
		}
		if len(idx) != 1 {
			return nil, tensor.NewShapeError("lookup", "indices must be 1D", table, idx)
		}
		return tensor.Shape{idx[0], table[1]}, nil
	},
	Forward: func(b *cpu.CPUBackend, attrs *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		indices, err := ReadIndices(in[1].Data(), in[0].Shape()[0], attrs.Indices)
		if err != nil {
			return err
		}
		attrs.Indices = indices
		b.Gather(out, in[0], indices)
		return nil
	},
	Backward: func(b *cpu.CPUBackend, attrs *Attrs, _ []*tensor.Tensor, _, grad *tensor.Tensor, dst []Target) {
		switch {
		case dst[0].Sparse != nil:
			dst[0].Sparse.AddRows(attrs.Indices, grad)
		case dst[0].Dense != nil:
			b.ScatterAdd(dst[0].Dense, grad, attrs.Indices)
		}
	},
}

// ReadIndices converts index values to row numbers, reusing buf. Every value must
// be an integer in [0, limit); the first one that is not yields an *IndexError.
// A negative limit disables the upper bound check.
func ReadIndices(values []float64, limit int, buf []int) ([]int, error) {
	buf = buf[:0]
	for pos, v := range values {
		if v != math.Trunc(v) || v < 0 || (limit >= 0 && v >= float64(limit)) {
			return nil, &IndexError{Op: "lookup", Position: pos, Index: v, Limit: limit}
		}
		buf = append(buf, int(v))
	}
	return buf, nil
}
