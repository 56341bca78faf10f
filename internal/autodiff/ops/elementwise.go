package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// elementwiseRule applies Attrs.Fn to every element. The gradient is
// Attrs.Deriv(x, y) * grad, where y = Fn(x).
var elementwiseRule = Rule{
	Name:           "elementwise",
	Arity:          1,
	Differentiable: true,
	Shape:          sameShape,
	Forward: func(b *cpu.CPUBackend, attrs *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Map(out, in[0], attrs.Fn)
		return nil
	},
	Backward: func(b *cpu.CPUBackend, attrs *Attrs, in []*tensor.Tensor, out, grad *tensor.Tensor, dst []Target) {
		if dst[0].Dense != nil {
			b.MapGrad(dst[0].Dense, in[0], out, grad, attrs.Deriv)
		}
	},
}
