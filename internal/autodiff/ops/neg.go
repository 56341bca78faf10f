package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// negRule: output = -x; d(-x)/dx = -1.
var negRule = Rule{
	Name:           "neg",
	Arity:          1,
	Differentiable: true,
	Shape:          sameShape,
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Neg(out, in[0])
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, _ []*tensor.Tensor, _, grad *tensor.Tensor, dst []Target) {
		if dst[0].Dense != nil {
			b.AccumulateScaled(dst[0].Dense, -1, grad)
		}
	},
}
