package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// subRule: output = a - b.
//
// Backward pass:
//   - d(a-b)/da = 1
//   - d(a-b)/db = -1
var subRule = Rule{
	Name:           "sub",
	Arity:          2,
	Differentiable: true,
	Shape:          broadcastShape("sub"),
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Sub(out, in[0], in[1])
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, _ []*tensor.Tensor, _, grad *tensor.Tensor, dst []Target) {
		reduceInto(b, dst[0], 1, grad)
		reduceInto(b, dst[1], -1, grad)
	},
}
