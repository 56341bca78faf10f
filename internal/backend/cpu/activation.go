package cpu

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/dagrad/internal/tensor"
)

// Row-wise kernels treat a tensor as rows along its last axis and split the
// rows among workers. A rank-0 or rank-1 tensor is a single row.

func lastAxis(t *tensor.Tensor) (rows, width int) {
	shape := t.Shape()
	if len(shape) == 0 {
		return 1, 1
	}
	width = shape[len(shape)-1]
	return t.NumElements() / width, width
}

// Softmax computes a max-shifted softmax along the last axis.
func (cpu *CPUBackend) Softmax(out, x *tensor.Tensor) {
	checkSize("softmax", out, x)
	rows, width := lastAxis(x)
	o, s := out.Data(), x.Data()
	cpu.pool.ForRows(rows, width, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			src := s[r*width : (r+1)*width]
			dst := o[r*width : (r+1)*width]
			m := floats.Max(src)
			sum := 0.0
			for i, v := range src {
				e := math.Exp(v - m)
				dst[i] = e
				sum += e
			}
			floats.Scale(1/sum, dst)
		}
	})
}

// SoftmaxBackward computes dst += y ⊙ (g - Σ(g ⊙ y)) per row, where y is the softmax output.
func (cpu *CPUBackend) SoftmaxBackward(dst, y, g *tensor.Tensor) {
	checkSize("softmax_backward", dst, y, g)
	rows, width := lastAxis(y)
	d, ys, gs := dst.Data(), y.Data(), g.Data()
	cpu.pool.ForRows(rows, width, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			off := r * width
			yr, gr := ys[off:off+width], gs[off:off+width]
			dot := floats.Dot(gr, yr)
			for i := range yr {
				d[off+i] += yr[i] * (gr[i] - dot)
			}
		}
	})
}

// LogSoftmax computes x - logsumexp(x) along the last axis.
func (cpu *CPUBackend) LogSoftmax(out, x *tensor.Tensor) {
	checkSize("log_softmax", out, x)
	rows, width := lastAxis(x)
	o, s := out.Data(), x.Data()
	cpu.pool.ForRows(rows, width, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			src := s[r*width : (r+1)*width]
			lse := floats.LogSumExp(src)
			floats.AddConst(-lse, floats.ScaleTo(o[r*width:(r+1)*width], 1, src))
		}
	})
}

// LogSoftmaxBackward computes dst += g - e^y * Σg per row, where y is the log-softmax output.
func (cpu *CPUBackend) LogSoftmaxBackward(dst, y, g *tensor.Tensor) {
	checkSize("log_softmax_backward", dst, y, g)
	rows, width := lastAxis(y)
	d, ys, gs := dst.Data(), y.Data(), g.Data()
	cpu.pool.ForRows(rows, width, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			off := r * width
			sum := floats.Sum(gs[off : off+width])
			for i := off; i < off+width; i++ {
				d[i] += gs[i] - math.Exp(ys[i])*sum
			}
		}
	})
}

// VectorDot computes the row-wise dot product of two (N, K) tensors into an (N, 1) tensor.
func (cpu *CPUBackend) VectorDot(out, a, b *tensor.Tensor) {
	checkSize("vector_dot", a, b)
	rows, width := lastAxis(a)
	if out.NumElements() != rows {
		checkShape("vector_dot", tensor.Shape{rows, 1}, out)
	}
	o, x, y := out.Data(), a.Data(), b.Data()
	cpu.pool.ForRows(rows, width, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			o[r] = floats.Dot(x[r*width:(r+1)*width], y[r*width:(r+1)*width])
		}
	})
}

// VectorDotBackward accumulates the gradient of a row-wise dot product.
// da += g_r * b_r and db += g_r * a_r; a nil destination is skipped.
func (cpu *CPUBackend) VectorDotBackward(da, db, a, b, g *tensor.Tensor) {
	rows, width := lastAxis(a)
	x, y, gs := a.Data(), b.Data(), g.Data()
	cpu.pool.ForRows(rows, width, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			span := r * width
			if da != nil {
				floats.AddScaled(da.Data()[span:span+width], gs[r], y[span:span+width])
			}
			if db != nil {
				floats.AddScaled(db.Data()[span:span+width], gs[r], x[span:span+width])
			}
		}
	})
}
