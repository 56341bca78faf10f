package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// squareRule: output = x²; d(x²)/dx = 2x.
var squareRule = Rule{
	Name:           "square",
	Arity:          1,
	Differentiable: true,
	Shape:          sameShape,
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Square(out, in[0])
		return nil
	},
	Backward: unaryBackward(func(x, _ float64) float64 { return 2 * x }),
}
