package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

func scalarShape(_ *Attrs, _ []tensor.Shape) (tensor.Shape, error) {
	return tensor.Shape{}, nil
}

// sumRule: scalar sum of all elements; every element receives the scalar gradient.
var sumRule = Rule{
	Name:           "sum",
	Arity:          1,
	Differentiable: true,
	Shape:          scalarShape,
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		out.Data()[0] = b.Sum(in[0])
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, _ []*tensor.Tensor, _, grad *tensor.Tensor, dst []Target) {
		if dst[0].Dense != nil {
			b.AccumulateConst(dst[0].Dense, grad.Data()[0])
		}
	},
}

// meanRule: scalar mean of all elements; every element receives grad/n.
var meanRule = Rule{
	Name:           "mean",
	Arity:          1,
	Differentiable: true,
	Shape:          scalarShape,
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		out.Data()[0] = b.Sum(in[0]) / float64(in[0].NumElements())
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, _, grad *tensor.Tensor, dst []Target) {
		if dst[0].Dense != nil {
			b.AccumulateConst(dst[0].Dense, grad.Data()[0]/float64(in[0].NumElements()))
		}
	},
}
