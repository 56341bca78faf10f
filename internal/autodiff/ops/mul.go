package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// mulRule: output = a * b (element-wise).
//
// Backward pass:
//   - d(a*b)/da = b
//   - d(a*b)/db = a
var mulRule = Rule{
	Name:           "mul",
	Arity:          2,
	Differentiable: true,
	Shape:          broadcastShape("mul"),
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Mul(out, in[0], in[1])
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out, grad *tensor.Tensor, dst []Target) {
		// The product with the other operand has the output's (broadcast) shape.
		scratch := tensor.Zeros(out.Shape())
		if !dst[0].Empty() {
			b.Mul(scratch, grad, in[1])
			reduceInto(b, dst[0], 1, scratch)
		}
		if !dst[1].Empty() {
			b.Mul(scratch, grad, in[0])
			reduceInto(b, dst[1], 1, scratch)
		}
	},
}
