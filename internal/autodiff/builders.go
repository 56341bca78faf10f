package autodiff

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/dagrad/internal/autodiff/ops"
	"github.com/born-ml/dagrad/internal/tensor"
)

// Operation builders. Each call validates shapes and allocates one node; no
// value is computed until it is read. All operands must belong to the same graph.

func newOp(kind ops.Kind, attrs ops.Attrs, parents ...*Node) (*Node, error) {
	if len(parents) == 0 || parents[0] == nil {
		return nil, &StaleGraphError{Detail: kind.String() + ": missing operand"}
	}
	g := parents[0].graph
	shapes := make([]tensor.Shape, len(parents))
	for i, p := range parents {
		if err := g.owns(p); err != nil {
			return nil, errors.Wrapf(err, "%s operand %d", kind, i)
		}
		shapes[i] = p.shape
	}
	shape, err := kind.OutputShape(&attrs, shapes)
	if err != nil {
		return nil, err
	}

	n := &Node{
		id:      g.nextID(),
		graph:   g,
		kind:    kind,
		attrs:   attrs,
		parents: append([]*Node(nil), parents...),
		shape:   shape,
	}
	for _, p := range parents {
		n.variable = n.variable || p.variable
		n.needsGrad = n.needsGrad || p.needsGrad
	}
	if n.needsGrad {
		n.grad = newAccumulator(shape)
	}
	if klog.V(2).Enabled() {
		klog.Infof("autodiff: built %s from %d operands", n, len(parents))
	}
	return n, nil
}

// Add returns a + b with broadcasting.
func Add(a, b *Node) (*Node, error) { return newOp(ops.Add, ops.Attrs{}, a, b) }

// Sub returns a - b with broadcasting.
func Sub(a, b *Node) (*Node, error) { return newOp(ops.Sub, ops.Attrs{}, a, b) }

// Mul returns the element-wise product a * b with broadcasting.
func Mul(a, b *Node) (*Node, error) { return newOp(ops.Mul, ops.Attrs{}, a, b) }

// Div returns the element-wise quotient a / b with broadcasting.
func Div(a, b *Node) (*Node, error) { return newOp(ops.Div, ops.Attrs{}, a, b) }

// MatMul returns the matrix product of (M, K) and (K, N) operands.
func MatMul(a, b *Node) (*Node, error) { return newOp(ops.MatMul, ops.Attrs{}, a, b) }

// VectorDot returns the row-wise dot products of two (N, K) operands as (N, 1).
func VectorDot(a, b *Node) (*Node, error) { return newOp(ops.VectorDot, ops.Attrs{}, a, b) }

// Neg returns -x.
func Neg(x *Node) (*Node, error) { return newOp(ops.Neg, ops.Attrs{}, x) }

// Square returns x².
func Square(x *Node) (*Node, error) { return newOp(ops.Square, ops.Attrs{}, x) }

// Exp returns e^x.
func Exp(x *Node) (*Node, error) { return newOp(ops.Exp, ops.Attrs{}, x) }

// Log returns ln(x).
func Log(x *Node) (*Node, error) { return newOp(ops.Log, ops.Attrs{}, x) }

// Tanh returns tanh(x).
func Tanh(x *Node) (*Node, error) { return newOp(ops.Tanh, ops.Attrs{}, x) }

// Sigmoid returns 1 / (1 + e^-x).
func Sigmoid(x *Node) (*Node, error) { return newOp(ops.Sigmoid, ops.Attrs{}, x) }

// ReLU returns max(0, x).
func ReLU(x *Node) (*Node, error) { return newOp(ops.ReLU, ops.Attrs{}, x) }

// Softmax returns the softmax of a 1D or 2D operand along its last axis.
func Softmax(x *Node) (*Node, error) { return newOp(ops.Softmax, ops.Attrs{}, x) }

// LogSoftmax returns x - logsumexp(x) along the last axis of a 1D or 2D operand.
func LogSoftmax(x *Node) (*Node, error) { return newOp(ops.LogSoftmax, ops.Attrs{}, x) }

// Sum returns the scalar sum of all elements.
func Sum(x *Node) (*Node, error) { return newOp(ops.Sum, ops.Attrs{}, x) }

// Mean returns the scalar mean of all elements.
func Mean(x *Node) (*Node, error) { return newOp(ops.Mean, ops.Attrs{}, x) }

// Transpose returns the transpose of a 2D operand.
func Transpose(x *Node) (*Node, error) { return newOp(ops.Transpose, ops.Attrs{}, x) }

// Concat stacks its operands along axis. All other dimensions must agree.
func Concat(axis int, xs ...*Node) (*Node, error) {
	return newOp(ops.Concat, ops.Attrs{Axis: axis}, xs...)
}

// Slice selects [start, end) along axis.
func Slice(x *Node, axis, start, end int) (*Node, error) {
	return newOp(ops.Slice, ops.Attrs{Axis: axis, Start: start, End: end}, x)
}

// Lookup gathers rows of table (V, D) selected by an index leaf (N) into an (N, D) node.
//
// When table is a parameter its gradient is kept sparse: every backward pass
// appends one (indices, rows) contribution to table.SparseGradient(). Any other
// table receives a dense scatter-add. Indices are validated against V when the
// lookup is evaluated; an invalid one yields an *IndexError.
func Lookup(table, indices *Node) (*Node, error) {
	if indices != nil && indices.leaf != IndexLeaf {
		return nil, errors.Wrapf(ErrInvalidIndex, "lookup: %s is not an index leaf", indices)
	}
	return newOp(ops.Lookup, ops.Attrs{}, table, indices)
}

// Apply returns f(x) element-wise. df gives the derivative in terms of the input x
// and the output y = f(x). name labels the node.
func Apply(x *Node, name string, f func(x float64) float64, df func(x, y float64) float64) (*Node, error) {
	if f == nil || df == nil {
		return nil, errors.Errorf("apply %q: both the function and its derivative are required", name)
	}
	n, err := newOp(ops.Elementwise, ops.Attrs{Fn: f, Deriv: df, Label: name}, x)
	if err != nil {
		return nil, err
	}
	n.name = name
	return n, nil
}
