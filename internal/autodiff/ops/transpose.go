package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// transposeRule: (M, N) -> (N, M); the gradient is transposed back.
var transposeRule = Rule{
	Name:           "transpose",
	Arity:          1,
	Differentiable: true,
	Shape: func(_ *Attrs, in []tensor.Shape) (tensor.Shape, error) {
		if len(in[0]) != 2 {
			return nil, tensor.NewShapeError("transpose", "expected a 2D operand", in[0])
		}
		return tensor.Shape{in[0][1], in[0][0]}, nil
	},
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Transpose(out, in[0])
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, _ []*tensor.Tensor, _, grad *tensor.Tensor, dst []Target) {
		if dst[0].Dense != nil {
			b.TransposeAccumulate(dst[0].Dense, grad)
		}
	},
}
