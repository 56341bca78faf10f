package ops

import (
	"fmt"

	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// matMulRule: output = a @ b for (M, K) @ (K, N) -> (M, N).
//
// Backward pass:
//   - d(A@B)/dA = outputGrad @ B^T
//   - d(A@B)/dB = A^T @ outputGrad
//
// Where @ denotes matrix multiplication and ^T denotes transpose.
var matMulRule = Rule{
	Name:           "matmul",
	Arity:          2,
	Differentiable: true,
	Shape: func(_ *Attrs, in []tensor.Shape) (tensor.Shape, error) {
		a, b := in[0], in[1]
		if len(a) != 2 || len(b) != 2 {
			return nil, tensor.NewShapeError("matmul", "only 2D operands supported", a, b)
		}
		if a[1] != b[0] {
			return nil, tensor.NewShapeError("matmul",
				fmt.Sprintf("inner dimensions differ: %d vs %d", a[1], b[0]), a, b)
		}
		return tensor.Shape{a[0], b[1]}, nil
	},
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.MatMul(out, in[0], in[1])
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, _, grad *tensor.Tensor, dst []Target) {
		if dst[0].Dense != nil {
			b.MatMulAccumulate(dst[0].Dense, grad, in[1], false, true)
		}
		if dst[1].Dense != nil {
			b.MatMulAccumulate(dst[1].Dense, in[0], grad, true, false)
		}
	},
}
