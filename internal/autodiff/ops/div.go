package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// divRule: output = a / b (element-wise).
//
// Backward pass:
//   - d(a/b)/da = 1/b
//   - d(a/b)/db = -a/b² = -(a/b)/b
var divRule = Rule{
	Name:           "div",
	Arity:          2,
	Differentiable: true,
	Shape:          broadcastShape("div"),
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Div(out, in[0], in[1])
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out, grad *tensor.Tensor, dst []Target) {
		// scratch = grad / b
		scratch := tensor.Zeros(out.Shape())
		b.Div(scratch, grad, in[1])
		reduceInto(b, dst[0], 1, scratch)
		if !dst[1].Empty() {
			// scratch = grad / b * (a / b)
			b.Mul(scratch, scratch, out)
			reduceInto(b, dst[1], -1, scratch)
		}
	},
}
