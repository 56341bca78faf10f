package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// reluRule: output = max(0, x); the gradient passes where the output is positive.
var reluRule = Rule{
	Name:           "relu",
	Arity:          1,
	Differentiable: true,
	Shape:          sameShape,
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.ReLU(out, in[0])
		return nil
	},
	Backward: unaryBackward(func(_, y float64) float64 {
		if y > 0 {
			return 1
		}
		return 0
	}),
}
