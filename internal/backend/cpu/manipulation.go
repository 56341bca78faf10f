package cpu

import (
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/dagrad/internal/tensor"
)

// Transpose writes the transpose of a 2D tensor: (M, N) -> (N, M).
func (cpu *CPUBackend) Transpose(out, x *tensor.Tensor) {
	cpu.transpose(out, x, false)
}

// TransposeAccumulate computes dst += gᵀ for 2D tensors.
func (cpu *CPUBackend) TransposeAccumulate(dst, g *tensor.Tensor) {
	cpu.transpose(dst, g, true)
}

func (cpu *CPUBackend) transpose(out, x *tensor.Tensor, accumulate bool) {
	if x.Rank() != 2 {
		exceptions.Panicf("cpu.transpose: expected a 2D tensor, got %s", x.Shape())
	}
	m, n := x.Shape()[0], x.Shape()[1]
	checkShape("transpose", tensor.Shape{n, m}, out)
	o, s := out.Data(), x.Data()
	// Partition by output row so each worker writes a disjoint range.
	cpu.pool.ForRows(n, m, func(lo, hi int) {
		for j := lo; j < hi; j++ {
			row := o[j*m : (j+1)*m]
			for i := range row {
				if accumulate {
					row[i] += s[i*n+j]
				} else {
					row[i] = s[i*n+j]
				}
			}
		}
	})
}

// CopyBlock copies (or adds, when accumulate is set) a block of width entries along
// axis from src starting at srcOff into dst starting at dstOff. All dimensions other
// than axis must agree. Concat, Slice and their gradients are all block copies.
func (cpu *CPUBackend) CopyBlock(dst, src *tensor.Tensor, axis, dstOff, srcOff, width int, accumulate bool) {
	ds, ss := dst.Shape(), src.Shape()
	if len(ds) != len(ss) || axis < 0 || axis >= len(ds) {
		exceptions.Panicf("cpu.copy_block: axis %d invalid for %s and %s", axis, ds, ss)
	}
	if dstOff < 0 || srcOff < 0 || dstOff+width > ds[axis] || srcOff+width > ss[axis] {
		exceptions.Panicf("cpu.copy_block: block [%d, %d) does not fit %s -> %s along axis %d",
			srcOff, srcOff+width, ss, ds, axis)
	}

	outer := tensor.Shape(ds[:axis]).NumElements()
	inner := tensor.Shape(ds[axis+1:]).NumElements()
	span := width * inner
	d, s := dst.Data(), src.Data()

	for o := 0; o < outer; o++ {
		to := d[(o*ds[axis]+dstOff)*inner:][:span]
		from := s[(o*ss[axis]+srcOff)*inner:][:span]
		if accumulate {
			floats.Add(to, from)
		} else {
			copy(to, from)
		}
	}
}

// Sum returns the sum of all elements.
func (cpu *CPUBackend) Sum(x *tensor.Tensor) float64 {
	return floats.Sum(x.Data())
}

// Gather copies rows of table selected by indices into out: out[i] = table[indices[i]].
// Indices must already be validated against the table's row count.
func (cpu *CPUBackend) Gather(out, table *tensor.Tensor, indices []int) {
	width := table.Shape().RowSize()
	checkShape("gather", tensor.Shape{len(indices), width}, out)
	cpu.pool.ForRows(len(indices), width, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			copy(out.Row(i), table.Row(indices[i]))
		}
	})
}

// ScatterAdd adds row i of g into row indices[i] of dst. Repeated indices accumulate,
// so this kernel runs sequentially.
func (cpu *CPUBackend) ScatterAdd(dst, g *tensor.Tensor, indices []int) {
	for i, idx := range indices {
		floats.Add(dst.Row(idx), g.Row(i))
	}
}
