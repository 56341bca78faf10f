package ops

import (
	"fmt"

	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// concatRule stacks its operands along Attrs.Axis. All other dimensions must agree.
// Each operand's gradient is its sub-range of the output gradient.
var concatRule = Rule{
	Name:           "concat",
	Arity:          -1,
	Differentiable: true,
	Shape: func(attrs *Attrs, in []tensor.Shape) (tensor.Shape, error) {
		first := in[0]
		axis := attrs.Axis
		if axis < 0 || axis >= len(first) {
			return nil, tensor.NewShapeError("concat", fmt.Sprintf("axis %d out of range for rank %d", axis, len(first)), in...)
		}
		out := first.Clone()
		for i, s := range in[1:] {
			if len(s) != len(first) {
				return nil, tensor.NewShapeError("concat", fmt.Sprintf("operand %d has rank %d, operand 0 has rank %d", i+1, len(s), len(first)), in...)
			}
			for d := range s {
				if d != axis && s[d] != first[d] {
					return nil, tensor.NewShapeError("concat",
						fmt.Sprintf("operand %d differs from operand 0 in dimension %d: %d vs %d", i+1, d, s[d], first[d]), in...)
				}
			}
			out[axis] += s[axis]
		}
		return out, nil
	},
	Forward: func(b *cpu.CPUBackend, attrs *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error {
		offset := 0
		for _, x := range in {
			width := x.Shape()[attrs.Axis]
			b.CopyBlock(out, x, attrs.Axis, offset, 0, width, false)
			offset += width
		}
		return nil
	},
	Backward: func(b *cpu.CPUBackend, attrs *Attrs, in []*tensor.Tensor, _, grad *tensor.Tensor, dst []Target) {
		offset := 0
		for i, x := range in {
			width := x.Shape()[attrs.Axis]
			if dst[i].Dense != nil {
				b.CopyBlock(dst[i].Dense, grad, attrs.Axis, 0, offset, width, true)
			}
			offset += width
		}
	},
}
