package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/dagrad/internal/autodiff/ops"
	"github.com/born-ml/dagrad/internal/tensor"
)

// Leaves take ownership of the tensors passed to them: callers must not keep
// mutating a tensor after handing it to the graph (use SetValue or
// MutableValue instead).

func (g *Graph) newLeaf(leaf LeafKind, name string, value *tensor.Tensor) (*Node, error) {
	if value == nil {
		return nil, errors.Errorf("%s %q: nil value", leaf, name)
	}
	n := &Node{
		id:        g.nextID(),
		graph:     g,
		name:      name,
		leaf:      leaf,
		kind:      ops.Leaf,
		shape:     value.Shape().Clone(),
		value:     value,
		evaluated: true,
		evalGen:   g.generation,
		variable:  leaf != ConstantLeaf,
	}
	return n, nil
}

// Constant creates a leaf whose value never changes and takes no gradient.
func (g *Graph) Constant(value *tensor.Tensor) (*Node, error) {
	return g.newLeaf(ConstantLeaf, "", value)
}

// Input creates a leaf for caller-supplied data. Its value can be replaced
// between passes with SetValue; it takes no gradient.
func (g *Graph) Input(name string, value *tensor.Tensor) (*Node, error) {
	return g.newLeaf(InputLeaf, name, value)
}

// Indices creates an index leaf selecting table rows for Lookup.
// The number of indices is fixed; their values can change with SetIndices.
func (g *Graph) Indices(name string, indices []int) (*Node, error) {
	if len(indices) == 0 {
		return nil, tensor.NewShapeError("indices", "need at least one index", tensor.Shape{0})
	}
	if err := checkIndices(indices); err != nil {
		return nil, err
	}
	data := make([]float64, len(indices))
	for i, idx := range indices {
		data[i] = float64(idx)
	}
	value, err := tensor.New(tensor.Shape{len(indices)}, data)
	if err != nil {
		return nil, err
	}
	return g.newLeaf(IndexLeaf, name, value)
}

// Parameter creates a trainable leaf. Names must be unique within the graph;
// they key StateDict and LoadStateDict.
//
// A parameter accumulates gradients across Backward calls until ZeroGradient.
// The engine never writes its value.
func (g *Graph) Parameter(name string, value *tensor.Tensor) (*Node, error) {
	if name == "" {
		return nil, errors.New("parameter: empty name")
	}
	if _, dup := g.paramByName[name]; dup {
		return nil, errors.Errorf("parameter %q already exists", name)
	}
	n, err := g.newLeaf(ParameterLeaf, name, value)
	if err != nil {
		return nil, err
	}
	n.needsGrad = true
	n.grad = newAccumulator(n.shape)
	g.params = append(g.params, n)
	g.paramByName[name] = n
	return n, nil
}
