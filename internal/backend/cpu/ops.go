package cpu

import (
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/dagrad/internal/tensor"
)

// Add computes out = a + b with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(out, a, b *tensor.Tensor) {
	if sameShape(out, a, b) {
		o, x, y := out.Data(), a.Data(), b.Data()
		cpu.pool.ForRange(len(o), func(lo, hi int) {
			floats.AddTo(o[lo:hi], x[lo:hi], y[lo:hi])
		})
		return
	}
	cpu.broadcastBinary(out, a, b, func(x, y float64) float64 { return x + y })
}

// Sub computes out = a - b with broadcasting.
func (cpu *CPUBackend) Sub(out, a, b *tensor.Tensor) {
	if sameShape(out, a, b) {
		o, x, y := out.Data(), a.Data(), b.Data()
		cpu.pool.ForRange(len(o), func(lo, hi int) {
			floats.SubTo(o[lo:hi], x[lo:hi], y[lo:hi])
		})
		return
	}
	cpu.broadcastBinary(out, a, b, func(x, y float64) float64 { return x - y })
}

// Mul computes out = a * b element-wise with broadcasting.
func (cpu *CPUBackend) Mul(out, a, b *tensor.Tensor) {
	if sameShape(out, a, b) {
		o, x, y := out.Data(), a.Data(), b.Data()
		cpu.pool.ForRange(len(o), func(lo, hi int) {
			floats.MulTo(o[lo:hi], x[lo:hi], y[lo:hi])
		})
		return
	}
	cpu.broadcastBinary(out, a, b, func(x, y float64) float64 { return x * y })
}

// Div computes out = a / b element-wise with broadcasting.
func (cpu *CPUBackend) Div(out, a, b *tensor.Tensor) {
	if sameShape(out, a, b) {
		o, x, y := out.Data(), a.Data(), b.Data()
		cpu.pool.ForRange(len(o), func(lo, hi int) {
			floats.DivTo(o[lo:hi], x[lo:hi], y[lo:hi])
		})
		return
	}
	cpu.broadcastBinary(out, a, b, func(x, y float64) float64 { return x / y })
}

// Accumulate computes dst += src. Shapes must match.
func (cpu *CPUBackend) Accumulate(dst, src *tensor.Tensor) {
	checkSize("accumulate", dst, src)
	d, s := dst.Data(), src.Data()
	cpu.pool.ForRange(len(d), func(lo, hi int) {
		floats.Add(d[lo:hi], s[lo:hi])
	})
}

// AccumulateScaled computes dst += alpha * src. Shapes must match.
func (cpu *CPUBackend) AccumulateScaled(dst *tensor.Tensor, alpha float64, src *tensor.Tensor) {
	checkSize("accumulate_scaled", dst, src)
	d, s := dst.Data(), src.Data()
	cpu.pool.ForRange(len(d), func(lo, hi int) {
		floats.AddScaled(d[lo:hi], alpha, s[lo:hi])
	})
}

// AccumulateConst computes dst += c for every element.
func (cpu *CPUBackend) AccumulateConst(dst *tensor.Tensor, c float64) {
	d := dst.Data()
	cpu.pool.ForRange(len(d), func(lo, hi int) {
		floats.AddConst(c, d[lo:hi])
	})
}

// AccumulateReduced computes dst += alpha * reduce(src), where src has a shape that
// dst broadcasts to and reduce sums src over the broadcast dimensions.
// Runs sequentially: several source elements land on the same destination element.
func (cpu *CPUBackend) AccumulateReduced(dst *tensor.Tensor, alpha float64, src *tensor.Tensor) {
	if dst.Shape().Equal(src.Shape()) {
		cpu.AccumulateScaled(dst, alpha, src)
		return
	}
	outShape := src.Shape()
	strides := tensor.BroadcastStrides(dst.Shape(), outShape)
	d, s := dst.Data(), src.Data()
	broadcastWalk(outShape, strides, strides, 0, len(s), func(i, id, _ int) {
		d[id] += alpha * s[i]
	})
}

func (cpu *CPUBackend) broadcastBinary(out, a, b *tensor.Tensor, f func(x, y float64) float64) {
	outShape := out.Shape()
	sa := tensor.BroadcastStrides(a.Shape(), outShape)
	sb := tensor.BroadcastStrides(b.Shape(), outShape)
	o, x, y := out.Data(), a.Data(), b.Data()
	cpu.pool.ForRange(len(o), func(lo, hi int) {
		broadcastWalk(outShape, sa, sb, lo, hi, func(i, ia, ib int) {
			o[i] = f(x[ia], y[ib])
		})
	})
}

// broadcastWalk calls fn for every flat output position i in [lo, hi) together with
// the matching flat offsets into two operands described by broadcast strides.
func broadcastWalk(out tensor.Shape, sa, sb []int, lo, hi int, fn func(i, ia, ib int)) {
	rank := len(out)
	coords := make([]int, rank)
	rem, ia, ib := lo, 0, 0
	for d := rank - 1; d >= 0; d-- {
		coords[d] = rem % out[d]
		rem /= out[d]
		ia += coords[d] * sa[d]
		ib += coords[d] * sb[d]
	}
	for i := lo; i < hi; i++ {
		fn(i, ia, ib)
		for d := rank - 1; d >= 0; d-- {
			coords[d]++
			ia += sa[d]
			ib += sb[d]
			if coords[d] < out[d] {
				break
			}
			ia -= coords[d] * sa[d]
			ib -= coords[d] * sb[d]
			coords[d] = 0
		}
	}
}

func sameShape(out, a, b *tensor.Tensor) bool {
	return out.Shape().Equal(a.Shape()) && out.Shape().Equal(b.Shape())
}
