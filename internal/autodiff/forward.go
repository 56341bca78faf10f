package autodiff

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/dagrad/internal/autodiff/ops"
	"github.com/born-ml/dagrad/internal/tensor"
)

// evaluate brings target and every stale ancestor up to date.
//
// Algorithm:
//  1. Collect the stale ancestors of target, stopping at clean nodes.
//  2. Sort them by ascending ID, a topological order.
//  3. Compute each exactly once.
//
// Only ancestors of target are visited, so unused branches are never computed.
func (g *Graph) evaluate(target *Node) error {
	order := g.staleAncestors(target)
	for _, n := range order {
		if err := g.compute(n); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) staleAncestors(target *Node) []*Node {
	walk := g.nextWalk()
	gen := g.generation
	stack := append(g.stack[:0], target)
	order := g.order[:0]
	target.walk = walk

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, n)
		for _, p := range n.parents {
			if p.walk == walk || p.isClean(gen) {
				continue
			}
			p.walk = walk
			stack = append(stack, p)
		}
	}

	slices.SortFunc(order, func(a, b *Node) int { return cmp.Compare(a.id, b.id) })
	g.stack, g.order = stack[:0], order
	return order
}

// compute runs the forward rule of n. All parents must be clean.
func (g *Graph) compute(n *Node) error {
	rule := n.kind.Rule()
	n.inputs = n.inputs[:0]
	for _, p := range n.parents {
		n.inputs = append(n.inputs, p.value)
	}
	if n.value == nil {
		n.value = tensor.Zeros(n.shape)
	}

	if err := rule.Forward(g.backend, &n.attrs, n.inputs, n.value); err != nil {
		var indexErr *ops.IndexError
		if errors.As(err, &indexErr) {
			indexErr.Node = n.id
		}
		return errors.WithMessagef(err, "forward %s", n)
	}
	n.evaluations++
	g.evaluations++
	if err := g.checkFinite(n, "forward", n.value); err != nil {
		return err
	}

	n.evaluated = true
	n.evalGen = g.generation
	if klog.V(2).Enabled() {
		klog.Infof("autodiff: forward %s (pass %d, evaluation %d)", n, g.generation, n.evaluations)
	}
	return nil
}
