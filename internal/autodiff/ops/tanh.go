package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// tanhRule: output = tanh(x); d(tanh x)/dx = 1 - tanh²(x).
var tanhRule = Rule{
	Name:           "tanh",
	Arity:          1,
	Differentiable: true,
	Shape:          sameShape,
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Tanh(out, in[0])
		return nil
	},
	Backward: unaryBackward(func(_, y float64) float64 { return 1 - y*y }),
}
