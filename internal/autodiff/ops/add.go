package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// addRule: output = a + b.
//
// Backward pass:
//   - d(a+b)/da = 1, reduced over the dimensions a was broadcast along
//   - d(a+b)/db = 1, reduced likewise
var addRule = Rule{
	Name:           "add",
	Arity:          2,
	Differentiable: true,
	Shape:          broadcastShape("add"),
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Add(out, in[0], in[1])
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, _ []*tensor.Tensor, _, grad *tensor.Tensor, dst []Target) {
		reduceInto(b, dst[0], 1, grad)
		reduceInto(b, dst[1], 1, grad)
	},
}
