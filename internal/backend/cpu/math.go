package cpu

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/dagrad/internal/tensor"
)

// Map computes out[i] = f(x[i]), partitioned by element.
func (cpu *CPUBackend) Map(out, x *tensor.Tensor, f func(float64) float64) {
	checkSize("map", out, x)
	o, s := out.Data(), x.Data()
	cpu.pool.ForRange(len(o), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			o[i] = f(s[i])
		}
	})
}

// MapGrad computes dst[i] += df(x[i], y[i]) * g[i], where y is the forward output.
// It is the backward counterpart of Map.
func (cpu *CPUBackend) MapGrad(dst, x, y, g *tensor.Tensor, df func(x, y float64) float64) {
	checkSize("map_grad", dst, x, y, g)
	d, xs, ys, gs := dst.Data(), x.Data(), y.Data(), g.Data()
	cpu.pool.ForRange(len(d), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			d[i] += df(xs[i], ys[i]) * gs[i]
		}
	})
}

// Neg computes out = -x.
func (cpu *CPUBackend) Neg(out, x *tensor.Tensor) {
	checkSize("neg", out, x)
	o, s := out.Data(), x.Data()
	cpu.pool.ForRange(len(o), func(lo, hi int) {
		floats.ScaleTo(o[lo:hi], -1, s[lo:hi])
	})
}

// Square computes out = x * x.
func (cpu *CPUBackend) Square(out, x *tensor.Tensor) {
	checkSize("square", out, x)
	o, s := out.Data(), x.Data()
	cpu.pool.ForRange(len(o), func(lo, hi int) {
		floats.MulTo(o[lo:hi], s[lo:hi], s[lo:hi])
	})
}

// Exp computes out = e^x.
func (cpu *CPUBackend) Exp(out, x *tensor.Tensor) {
	cpu.Map(out, x, math.Exp)
}

// Log computes the natural logarithm. Non-positive inputs produce NaN or -Inf.
func (cpu *CPUBackend) Log(out, x *tensor.Tensor) {
	cpu.Map(out, x, math.Log)
}

// Tanh computes the hyperbolic tangent.
func (cpu *CPUBackend) Tanh(out, x *tensor.Tensor) {
	cpu.Map(out, x, math.Tanh)
}

// Sigmoid computes 1 / (1 + e^-x) without overflowing for large |x|.
func (cpu *CPUBackend) Sigmoid(out, x *tensor.Tensor) {
	cpu.Map(out, x, sigmoid)
}

// ReLU computes max(0, x).
func (cpu *CPUBackend) ReLU(out, x *tensor.Tensor) {
	cpu.Map(out, x, func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	})
}

func sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}
