package ops

import (
	"fmt"

	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// broadcastShape is the shape rule shared by the broadcasting binary operations.
func broadcastShape(name string) func(*Attrs, []tensor.Shape) (tensor.Shape, error) {
	return func(_ *Attrs, in []tensor.Shape) (tensor.Shape, error) {
		out, _, err := tensor.BroadcastShapes(in[0], in[1])
		if err != nil {
			return nil, tensor.NewShapeError(name, "operands are not broadcast-compatible", in[0], in[1])
		}
		return out, nil
	}
}

// sameShape is the shape rule of element-wise unary operations.
func sameShape(_ *Attrs, in []tensor.Shape) (tensor.Shape, error) {
	return in[0].Clone(), nil
}

// rankShape accepts operands of rank min..max and preserves the shape.
func rankShape(name string, minRank, maxRank int) func(*Attrs, []tensor.Shape) (tensor.Shape, error) {
	return func(_ *Attrs, in []tensor.Shape) (tensor.Shape, error) {
		if r := len(in[0]); r < minRank || r > maxRank {
			return nil, tensor.NewShapeError(name, fmt.Sprintf("expected rank %d to %d", minRank, maxRank), in[0])
		}
		return in[0].Clone(), nil
	}
}

// reduceInto adds alpha * grad into dst, summing over the dimensions dst was broadcast along.
func reduceInto(b *cpu.CPUBackend, dst Target, alpha float64, grad *tensor.Tensor) {
	if dst.Dense != nil {
		b.AccumulateReduced(dst.Dense, alpha, grad)
	}
}

// unaryBackward builds a backward rule from a derivative expressed in terms of the
// input x and the output y.
func unaryBackward(df func(x, y float64) float64) func(*cpu.CPUBackend, *Attrs, []*tensor.Tensor, *tensor.Tensor, *tensor.Tensor, []Target) {
	return func(b *cpu.CPUBackend, _ *Attrs, in []*tensor.Tensor, out, grad *tensor.Tensor, dst []Target) {
		if dst[0].Dense != nil {
			b.MapGrad(dst[0].Dense, in[0], out, grad, df)
		}
	}
}
