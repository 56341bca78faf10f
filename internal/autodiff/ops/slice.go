package ops

import (
	"fmt"

	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// sliceRule selects [Attrs.Start, Attrs.End) along Attrs.Axis.
// The gradient is routed back to that range and is zero elsewhere.
var sliceRule = Rule{
	Name:           "slice",
	Arity:          1,
	Differentiable: true,
	Shape: func(attrs *Attrs, in []tensor.Shape) (tensor.Shape, error) {
		x := in[0]
		if attrs.Axis < 0 || attrs.Axis >= len(x) {
			return nil, tensor.NewShapeError("slice", fmt.Sprintf("axis %d out of range for rank %d", attrs.Axis, len(x)), x)
		}
		if attrs.Start < 0 || attrs.End > x[attrs.Axis] || attrs.Start >= attrs.End {
			return nil, tensor.NewShapeError("slice",
				fmt.Sprintf("range [%d, %d) invalid for dimension %d of size %d", attrs.Start, attrs.End, attrs.Axis, x[attrs.Axis]), x)
		}
		out := x.Clone()
		out[attrs.Axis] = attrs.End - attrs.Start
		return out, nil
	},
	Forward: func(b *cpu.CPUBackend, attrs *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		b.CopyBlock(out, in[0], attrs.Axis, 0, attrs.Start, attrs.End-attrs.Start, false)
		return nil
	},
	Backward: func(b *cpu.CPUBackend, attrs *Attrs, _ []*tensor.Tensor, _, grad *tensor.Tensor, dst []Target) {
		if dst[0].Dense != nil {
			b.CopyBlock(dst[0].Dense, grad, attrs.Axis, attrs.Start, 0, attrs.End-attrs.Start, true)
		}
	},
}
