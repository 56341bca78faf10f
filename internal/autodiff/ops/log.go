package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// logRule: output = ln(x); d(ln x)/dx = 1/x.
var logRule = Rule{
	Name:           "log",
	Arity:          1,
	Differentiable: true,
	Shape:          sameShape,
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Log(out, in[0])
		return nil
	},
	Backward: unaryBackward(func(x, _ float64) float64 { return 1 / x }),
}
