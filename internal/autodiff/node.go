package autodiff

import (
	"fmt"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/dagrad/internal/autodiff/ops"
	"github.com/born-ml/dagrad/internal/tensor"
)

// LeafKind distinguishes the leaves of a graph.
type LeafKind uint8

const (
	OpNode        LeafKind = iota // Result of an operation.
	ConstantLeaf                  // Fixed value, never invalidated.
	InputLeaf                     // Caller-supplied value, may change between passes.
	IndexLeaf                     // Integer row indices for Lookup, may change between passes.
	ParameterLeaf                 // Trainable value with a persistent gradient.
)

var leafNames = [...]string{"op", "constant", "input", "indices", "parameter"}

// String implements fmt.Stringer.
func (k LeafKind) String() string {
	if int(k) < len(leafNames) {
		return leafNames[k]
	}
	return fmt.Sprintf("LeafKind(%d)", uint8(k))
}

// Node is one vertex of the computation graph.
//
// Parents always have smaller IDs than their consumers, so ascending ID order is
// a topological order. Nodes are shared by pointer; a node stays alive as long
// as any consumer (or the caller) references it.
type Node struct {
	id      int
	graph   *Graph
	name    string
	leaf    LeafKind
	kind    ops.Kind
	attrs   ops.Attrs
	parents []*Node
	shape   tensor.Shape

	value     *tensor.Tensor // Reused across passes.
	evaluated bool
	evalGen   uint64
	variable  bool // Depends on a mutable leaf.
	needsGrad bool
	grad      *accumulator // nil unless needsGrad.

	evaluations int
	walk        uint64
	inputs      []*tensor.Tensor // Parent values scratch.
}

// ID returns the node's unique, construction-ordered identifier.
func (n *Node) ID() int { return n.id }

// Name returns the name given at creation, or the operation name.
func (n *Node) Name() string {
	if n.name != "" {
		return n.name
	}
	return n.kind.String()
}

// Graph returns the graph the node belongs to.
func (n *Node) Graph() *Graph { return n.graph }

// Kind returns the node's operation.
func (n *Node) Kind() ops.Kind { return n.kind }

// Leaf returns the kind of leaf, or OpNode.
func (n *Node) Leaf() LeafKind { return n.leaf }

// IsParameter reports whether the node is a trainable parameter.
func (n *Node) IsParameter() bool { return n.leaf == ParameterLeaf }

// Shape returns the node's shape, fixed at construction.
func (n *Node) Shape() tensor.Shape { return n.shape }

// Parents returns the operands in order. Callers must not modify the slice.
func (n *Node) Parents() []*Node { return n.parents }

// NeedsGradient reports whether gradients flow into this node.
func (n *Node) NeedsGradient() bool { return n.needsGrad }

// Evaluations returns how many times the node's value was computed.
func (n *Node) Evaluations() int { return n.evaluations }

// IsClean reports whether the node's value is current for this pass.
func (n *Node) IsClean() bool {
	return n.isClean(n.graph.generation)
}

func (n *Node) isClean(gen uint64) bool {
	if n.leaf != OpNode {
		return true
	}
	return n.evaluated && (!n.variable || n.evalGen == gen)
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return fmt.Sprintf("Node#%d(%s %s)", n.id, n.Name(), n.shape)
}

// Value returns the node's value, computing it and any stale ancestors first.
// It never touches gradients. The returned tensor is owned by the node and is
// overwritten when the node is recomputed.
func (n *Node) Value() (value *tensor.Tensor, err error) {
	if n.isClean(n.graph.generation) {
		return n.value, nil
	}
	if panicErr := catchPanic(func() { err = n.graph.evaluate(n) }); panicErr != nil {
		return nil, errors.Wrapf(panicErr, "evaluating %s", n)
	}
	if err != nil {
		return nil, err
	}
	return n.value, nil
}

// ExportValue returns a deep copy of the node's value.
func (n *Node) ExportValue() (*tensor.Tensor, error) {
	v, err := n.Value()
	if err != nil {
		return nil, err
	}
	return v.Clone(), nil
}

// SetValue replaces the value of an input leaf and begins a new pass.
// The shape must not change.
func (n *Node) SetValue(t *tensor.Tensor) error {
	if n.leaf != InputLeaf {
		return errors.Errorf("SetValue: %s is a %s, only inputs can be set", n, n.leaf)
	}
	return n.overwrite("set_value", t)
}

// ImportValue overwrites the value of a parameter or input and begins a new pass.
// The shape must match.
func (n *Node) ImportValue(t *tensor.Tensor) error {
	if n.leaf != ParameterLeaf && n.leaf != InputLeaf {
		return errors.Errorf("ImportValue: %s is a %s, only parameters and inputs hold importable values", n, n.leaf)
	}
	return n.overwrite("import_value", t)
}

func (n *Node) overwrite(op string, t *tensor.Tensor) error {
	if t == nil {
		return errors.Errorf("%s: nil tensor for %s", op, n)
	}
	if !t.Shape().Equal(n.shape) {
		return tensor.NewShapeError(op, fmt.Sprintf("value for %s must keep its shape", n), n.shape, t.Shape())
	}
	if err := n.value.CopyFrom(t); err != nil {
		return err
	}
	n.graph.BeginPass()
	return nil
}

// MutableValue returns the storage of a parameter or input for in-place updates,
// typically by an optimizer step.
//
// Mutation through this tensor is not detected: call Graph.BeginPass (or
// Graph.Reset) before reading dependent values again.
func (n *Node) MutableValue() (*tensor.Tensor, error) {
	if n.leaf != ParameterLeaf && n.leaf != InputLeaf {
		return nil, errors.Errorf("MutableValue: %s is a %s, only parameters and inputs are mutable", n, n.leaf)
	}
	return n.value, nil
}

// SetIndices replaces the rows selected by an index leaf and begins a new pass.
// The number of indices is fixed at creation; changing it yields a *StaleGraphError.
func (n *Node) SetIndices(indices []int) error {
	if n.leaf != IndexLeaf {
		return errors.Errorf("SetIndices: %s is a %s, not an index leaf", n, n.leaf)
	}
	if len(indices) != n.shape[0] {
		return &StaleGraphError{
			Node:   n.id,
			Detail: fmt.Sprintf("index leaf holds %d indices, got %d; consumers were built for the old length", n.shape[0], len(indices)),
		}
	}
	if err := checkIndices(indices); err != nil {
		err.Node = n.id
		return err
	}
	data := n.value.Data()
	for i, idx := range indices {
		data[i] = float64(idx)
	}
	n.graph.BeginPass()
	return nil
}

// Indices returns the current rows of an index leaf.
func (n *Node) Indices() ([]int, error) {
	if n.leaf != IndexLeaf {
		return nil, errors.Errorf("Indices: %s is a %s, not an index leaf", n, n.leaf)
	}
	return ops.ReadIndices(n.value.Data(), -1, nil)
}

func checkIndices(indices []int) *IndexError {
	for pos, idx := range indices {
		if idx < 0 {
			return &IndexError{Op: "indices", Position: pos, Index: float64(idx), Limit: -1}
		}
	}
	return nil
}

// Gradient returns the dense accumulated gradient, or nil if none has been
// accumulated since the last zeroing. For a Lookup table parameter the sparse
// part is in SparseGradient, see also DenseGradient.
func (n *Node) Gradient() *tensor.Tensor {
	if n.grad == nil {
		return nil
	}
	return n.grad.denseValue()
}

// SparseGradient returns the sparse gradient part, or nil if the node never
// received sparse updates.
func (n *Node) SparseGradient() *SparseGradient {
	if n.grad == nil {
		return nil
	}
	return n.grad.sparse
}

// DenseGradient returns a new tensor holding the dense part plus the sparse part
// scattered into it. It returns zeros if nothing was accumulated and nil if the
// node does not take gradients.
func (n *Node) DenseGradient() *tensor.Tensor {
	if n.grad == nil {
		return nil
	}
	out := tensor.Zeros(n.shape)
	if d := n.grad.denseValue(); d != nil {
		copy(out.Data(), d.Data())
	}
	if n.grad.sparse != nil {
		// The sparse part always has the node's shape.
		_ = n.grad.sparse.AddTo(out)
	}
	return out
}

// HasGradient reports whether anything was accumulated since the last zeroing.
func (n *Node) HasGradient() bool {
	return n.grad != nil && n.grad.touched()
}

// ZeroGradient clears the accumulated gradient, dense and sparse parts.
func (n *Node) ZeroGradient() {
	if n.grad == nil {
		klog.V(2).Infof("autodiff: ZeroGradient on %s, which takes no gradient", n)
		return
	}
	n.grad.zero()
}

// ClampGradient limits every accumulated gradient value to [lo, hi].
func (n *Node) ClampGradient(lo, hi float64) error {
	if lo > hi {
		return errors.Errorf("ClampGradient: empty range [%g, %g]", lo, hi)
	}
	if n.grad != nil {
		n.grad.clamp(lo, hi)
	}
	return nil
}

// Backward accumulates the gradient of n into every ancestor. See Graph.Backward.
func (n *Node) Backward(seed *tensor.Tensor) error {
	return n.graph.Backward(n, seed)
}
