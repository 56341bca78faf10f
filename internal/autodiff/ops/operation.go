// Package ops defines the closed catalog of graph operations and their
// forward and backward rules.
//
// Each operation kind maps to a Rule, which provides:
//   - Shape: output shape for the given operand shapes (no computation)
//   - Forward: computes the output into a preallocated tensor
//   - Backward: ADDS the vector-Jacobian product of every operand into its Target
//
// Supported operations:
//   - Add, Sub, Mul, Div: element-wise with NumPy-style broadcasting
//   - MatMul: matrix multiplication (d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad)
//   - VectorDot: row-wise dot product of two (N, K) operands
//   - Neg, Square, Exp, Log, Tanh, Sigmoid, ReLU: element-wise math
//   - Softmax, LogSoftmax: along the last axis
//   - Sum, Mean: full reduction to a scalar
//   - Transpose, Concat, Slice: data movement
//   - Lookup: embedding row gather with sparse gradients
//   - Elementwise: a caller-supplied function and its derivative
package ops

import (
	"fmt"

	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/tensor"
)

// Kind identifies an operation. The set is closed.
type Kind uint8

const (
	Leaf Kind = iota // Constant, input, parameter or index leaf.
	Add
	Sub
	Mul
	Div
	MatMul
	VectorDot
	Neg
	Square
	Exp
	Log
	Tanh
	Sigmoid
	ReLU
	Softmax
	LogSoftmax
	Sum
	Mean
	Transpose
	Concat
	Slice
	Lookup
	Elementwise

	numKinds
)

// NumKinds is the number of operation kinds.
const NumKinds = int(numKinds)

// Attrs holds the non-tensor arguments of an operation.
type Attrs struct {
	Axis       int // Concat and Slice axis.
	Start, End int // Slice range [Start, End) along Axis.

	// Indices is the snapshot of validated row indices a Lookup read during its
	// last forward evaluation. Backward scatters with the same indices.
	Indices []int

	// Elementwise function, its derivative in terms of input x and output y, and a label.
	Fn    func(x float64) float64
	Deriv func(x, y float64) float64
	Label string
}

// RowSink receives sparse row gradients: rows[i] belongs to table row indices[i].
// Implementations must copy what they keep.
type RowSink interface {
	AddRows(indices []int, rows *tensor.Tensor)
}

// Target is where a backward rule adds an operand's gradient.
// A zero Target means the operand does not need a gradient.
// Sparse is only ever set for the table operand of a Lookup.
type Target struct {
	Dense  *tensor.Tensor
	Sparse RowSink
}

// Empty reports whether the operand needs no gradient.
func (t Target) Empty() bool {
	return t.Dense == nil && t.Sparse == nil
}

// Rule is the forward/backward contract of one operation kind.
type Rule struct {
	Name string

	// Arity is the number of operands, or -1 for one or more.
	Arity int

	// Differentiable is false for leaves; their Backward is nil.
	Differentiable bool

	// Shape computes the output shape. It returns a *tensor.ShapeError on mismatch.
	Shape func(attrs *Attrs, in []tensor.Shape) (tensor.Shape, error)

	// Forward computes the output into out, which already has the right shape.
	Forward func(b *cpu.CPUBackend, attrs *Attrs, in []*tensor.Tensor, out *tensor.Tensor) error

	// Backward adds the contribution of grad (same shape as out) into dst[i] for
	// every operand i with a non-empty target.
	Backward func(b *cpu.CPUBackend, attrs *Attrs, in []*tensor.Tensor, out, grad *tensor.Tensor, dst []Target)
}

var rules = [numKinds]Rule{
	Leaf:        leafRule,
	Add:         addRule,
	Sub:         subRule,
	Mul:         mulRule,
	Div:         divRule,
	MatMul:      matMulRule,
	VectorDot:   vectorDotRule,
	Neg:         negRule,
	Square:      squareRule,
	Exp:         expRule,
	Log:         logRule,
	Tanh:        tanhRule,
	Sigmoid:     sigmoidRule,
	ReLU:        reluRule,
	Softmax:     softmaxRule,
	LogSoftmax:  logSoftmaxRule,
	Sum:         sumRule,
	Mean:        meanRule,
	Transpose:   transposeRule,
	Concat:      concatRule,
	Slice:       sliceRule,
	Lookup:      lookupRule,
	Elementwise: elementwiseRule,
}

// Rule returns the rule of k. It panics for kinds outside the catalog.
func (k Kind) Rule() *Rule {
	if k >= numKinds {
		panic(fmt.Sprintf("ops: unknown kind %d", uint8(k)))
	}
	return &rules[k]
}

// String returns the operation name.
func (k Kind) String() string {
	if k >= numKinds {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return rules[k].Name
}

// OutputShape validates the operand count and computes the output shape of k.
func (k Kind) OutputShape(attrs *Attrs, in []tensor.Shape) (tensor.Shape, error) {
	r := k.Rule()
	if r.Shape == nil {
		return nil, fmt.Errorf("ops: %s has no shape rule", r.Name)
	}
	if (r.Arity >= 0 && len(in) != r.Arity) || (r.Arity < 0 && len(in) == 0) {
		return nil, tensor.NewShapeError(r.Name, fmt.Sprintf("expected %s operands, got %d", arityString(r.Arity), len(in)), in...)
	}
	return r.Shape(attrs, in)
}

func arityString(n int) string {
	if n < 0 {
		return "one or more"
	}
	return fmt.Sprint(n)
}

var leafRule = Rule{
	Name:  "leaf",
	Arity: 0,
	Forward: func(_ *cpu.CPUBackend, _ *Attrs, _ []*tensor.Tensor, _ *tensor.Tensor) error {
		return nil
	},
}
