package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// sigmoidRule: output = σ(x) = 1/(1+e^-x); dσ/dx = σ(x)(1-σ(x)).
var sigmoidRule = Rule{
	Name:           "sigmoid",
	Arity:          1,
	Differentiable: true,
	Shape:          sameShape,
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Sigmoid(out, in[0])
		return nil
	},
	Backward: unaryBackward(func(_, y float64) float64 { return y * (1 - y) }),
}
