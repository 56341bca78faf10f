package ops

import (
	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// softmaxRule: softmax along the last axis of a 1D or 2D operand.
//
// Backward pass, per row with y = softmax(x):
//
//	dx = y ⊙ (grad - Σ(grad ⊙ y))
var softmaxRule = Rule{
	Name:           "softmax",
	Arity:          1,
	Differentiable: true,
	Shape:          rankShape("softmax", 1, 2),
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.Softmax(out, in[0])
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, _ []*tensor.Tensor, out, grad *tensor.Tensor, dst []Target) {
		if dst[0].Dense != nil {
			b.SoftmaxBackward(dst[0].Dense, out, grad)
		}
	},
}

// logSoftmaxRule: x - logsumexp(x) along the last axis of a 1D or 2D operand.
//
// Backward pass, per row with y = log_softmax(x):
//
//	dx = grad - e^y * Σgrad
var logSoftmaxRule = Rule{
	Name:           "log_softmax",
	Arity:          1,
	Differentiable: true,
	Shape:          rankShape("log_softmax", 1, 2),
	Forward: func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.LogSoftmax(out, in[0])
		return nil
	},
	Backward: func(b *cpu.CPUBackend, _ *Attrs, _ []*tensor.Tensor, out, grad *tensor.Tensor, dst []Target) {
		if dst[0].Dense != nil {
			b.LogSoftmaxBackward(dst[0].Dense, out, grad)
		}
	},
}
