package autodiff

import (
	"cmp"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/dagrad/internal/autodiff/ops"
	"github.com/born-ml/dagrad/internal/tensor"
)

// Backward accumulates the gradient of out into every ancestor that needs one.
//
// A nil seed stands for d(out)/d(out) = 1 and requires out to hold exactly one
// element; otherwise seed must have out's shape. If out does not need a gradient
// this is a no-op.
//
// Algorithm:
//  1. Evaluate out (and any stale ancestors).
//  2. Collect the ancestors reachable through gradient-carrying edges and sort
//     them by descending ID, a reverse topological order.
//  3. Zero the scratch accumulators of intermediate nodes and add the seed into out.
//  4. Walk the order; each node with a gradient adds its operands' contributions
//     through its backward rule. A node used k times receives k contributions.
//
// Parameter gradients are never zeroed here: calling Backward twice without
// ZeroGradients adds both passes' gradients, which is how gradients are
// accumulated over micro-batches.
func (g *Graph) Backward(out *Node, seed *tensor.Tensor) (err error) {
	if err := g.owns(out); err != nil {
		return err
	}
	if !out.needsGrad {
		return nil
	}
	if panicErr := catchPanic(func() { err = g.backward(out, seed) }); panicErr != nil {
		return errors.Wrapf(panicErr, "backward from %s", out)
	}
	return err
}

func (g *Graph) backward(out *Node, seed *tensor.Tensor) error {
	if _, err := out.Value(); err != nil {
		return err
	}
	if seed == nil {
		if out.shape.NumElements() != 1 {
			return tensor.NewShapeError("backward", "implicit seed needs a single-element output, pass an explicit seed", out.shape)
		}
	} else if !seed.Shape().Equal(out.shape) {
		return tensor.NewShapeError("backward", "seed must have the output shape", out.shape, seed.Shape())
	}

	order := g.gradientAncestors(out)
	for _, n := range order {
		if n.leaf != ParameterLeaf {
			n.grad.zero()
		}
	}

	if seed == nil {
		g.backend.AccumulateConst(out.grad.target(), 1)
	} else {
		g.backend.Accumulate(out.grad.target(), seed)
	}

	visited := 0
	for _, n := range order {
		if n.leaf != OpNode || !n.grad.touched() {
			continue
		}
		if err := g.propagate(n); err != nil {
			return err
		}
		visited++
	}

	if klog.V(1).Enabled() {
		scratch := 0
		for _, n := range order {
			scratch += n.grad.byteSize()
		}
		klog.Infof("autodiff: backward from %s visited %d of %d nodes, %s of gradient buffers",
			out, visited, len(order), humanize.Bytes(uint64(scratch)))
	}
	return nil
}

// gradientAncestors returns out and its ancestors that need gradients, in
// descending ID order.
func (g *Graph) gradientAncestors(out *Node) []*Node {
	walk := g.nextWalk()
	stack := []*Node{out}
	order := []*Node{}
	out.walk = walk
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, n)
		for _, p := range n.parents {
			if p.walk == walk || !p.needsGrad {
				continue
			}
			p.walk = walk
			stack = append(stack, p)
		}
	}
	slices.SortFunc(order, func(a, b *Node) int { return cmp.Compare(b.id, a.id) })
	return order
}

// propagate runs the backward rule of n, adding into its parents' accumulators.
func (g *Graph) propagate(n *Node) error {
	grad := n.grad.target()
	if err := g.checkFinite(n, "backward", grad); err != nil {
		return err
	}

	dst := make([]ops.Target, len(n.parents))
	for i, p := range n.parents {
		if !p.needsGrad {
			continue
		}
		if n.kind == ops.Lookup && i == 0 && p.leaf == ParameterLeaf {
			dst[i].Sparse = p.grad.sparseTarget()
			continue
		}
		dst[i].Dense = p.grad.target()
	}

	// Parents may already hold non-finite values from an earlier Backward; only
	// values this rule adds are attributed to n.
	var before []int
	if g.strict() {
		before = make([]int, len(dst))
		for i, t := range dst {
			if t.Dense != nil {
				before[i] = t.Dense.NonFinite()
			}
		}
	}

	n.inputs = n.inputs[:0]
	for _, p := range n.parents {
		n.inputs = append(n.inputs, p.value)
	}
	n.kind.Rule().Backward(g.backend, &n.attrs, n.inputs, n.value, grad, dst)
	if klog.V(2).Enabled() {
		klog.Infof("autodiff: backward %s", n)
	}

	if !g.strict() {
		return nil
	}
	for i, t := range dst {
		if t.Dense == nil {
			continue
		}
		if added := t.Dense.NonFinite() - before[i]; added > 0 {
			return &NumericalError{Node: n.id, Op: n.kind.String(), Phase: "backward", Count: added}
		}
	}
	return nil
}
