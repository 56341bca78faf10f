package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// vectorDotRule: row-wise dot product, (N, K) x (N, K) -> (N, 1).
//
// Backward pass:
//   - da_r = grad_r * b_r
//   - db_r = grad_r * a_r
var vectorDotRule = Rule{
	Name:           "vector_dot",
	Arity:          2,
	Differentiable: true,
	Shape: func(_ *Attrs, in []tensor.Shape) (tensor.Shape, error) {
		a, b := in[0], in[1]
		if len(a) != 2 || !a.Equal(b) {
			return nil, tensor.NewShapeError("vector_dot", "expected two 2D operands of equal shape", a, b)
		}
		return tensor.Shape{a[0], 1}, nil
	},
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.VectorDot(out, in[0], in[1])
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, _, grad *tensor.Tensor, dst []Target) {
		b.VectorDotBackward(dst[0].Dense, dst[1].Dense, in[0], in[1], grad)
	},
}
