package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// expRule: output = e^x; d(e^x)/dx = e^x, read back from the output.
var expRule = Rule{
	Name:           "exp",
	Arity:          1,
	Differentiable: true,
	Shape:          sameShape,
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Exp(out, in[0])
		return nil
	},
	Backward: unaryBackward(func(_, y float64) float64 { return y }),
}
