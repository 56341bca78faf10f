// Package autodiff implements define-by-run reverse-mode automatic differentiation.
//
// Every operation call allocates a graph Node and returns immediately: no kernel
// runs at construction time. A node's value is computed the first time it is read
// and memoized until the next pass begins. Gradients of any output with respect to
// every ancestor are accumulated by walking the DAG in reverse topological order.
//
// Architecture:
//   - Graph: execution context owning the configuration, the worker pool and the parameters
//   - Node: one operation application (or a leaf) with memoized value and gradient accumulator
//   - ops.Rule: closed catalog of forward/backward rules, see package ops
//   - Generations: Graph.BeginPass invalidates every node depending on a mutable leaf in O(1)
//
// Usage:
//
//	g, _ := autodiff.NewGraph(autodiff.DefaultConfig())
//	a, _ := g.Parameter("a", tensor.Full(tensor.Shape{2}, 2))
//	b, _ := g.Input("b", tensor.Full(tensor.Shape{2}, 3))
//	ab, _ := autodiff.Mul(a, b)
//	loss, _ := autodiff.Sum(ab)
//
//	_ = loss.Backward(nil)  // d(loss)/da = b
//	fmt.Println(a.Gradient())
//
//	// External optimizer step, then start the next pass:
//	value, _ := a.MutableValue()
//	floats.AddScaled(value.Data(), -0.1, a.Gradient().Data())
//	g.Reset()
//
// Numerics. With Strict numerics (the default) every forward output and every
// backward contribution is checked for NaN and Inf, and the first offending node
// is reported as a *NumericalError. Fast numerics skips those checks, so a NaN or
// Inf propagates silently into downstream values and gradients; it saves one pass
// over each buffer. Building with the "fastmath" tag makes Fast the default.
// Results on well-conditioned inputs are identical in both modes.
//
// Concurrency. A Graph and its nodes belong to one goroutine. Kernels fork work
// onto the graph's pool and join before returning. Independent graphs share
// nothing and may be used from different goroutines.
package autodiff

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/dagrad/internal/backend/cpu"
	"github.com/born-ml/dagrad/internal/parallel"
	"github.com/born-ml/dagrad/internal/tensor"
)

// Numerics selects how non-finite values are handled.
type Numerics uint8

const (
	// Strict reports NaN or Inf values as a *NumericalError naming the node that produced them.
	Strict Numerics = iota

	// Fast skips non-finite checks; NaN and Inf propagate silently.
	Fast
)

// String implements fmt.Stringer.
func (n Numerics) String() string {
	switch n {
	case Strict:
		return "strict"
	case Fast:
		return "fast"
	default:
		return fmt.Sprintf("Numerics(%d)", uint8(n))
	}
}

// Config controls graph execution.
type Config struct {
	Numerics Numerics        // Non-finite value handling.
	Parallel parallel.Config // Data-parallel kernel execution.
}

// DefaultConfig returns the default numerics and a pool sized to the CPU count.
func DefaultConfig() Config {
	return Config{
		Numerics: defaultNumerics,
		Parallel: parallel.DefaultConfig(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Numerics != Strict && c.Numerics != Fast {
		return errors.Errorf("autodiff: unknown numerics mode %d", uint8(c.Numerics))
	}
	return errors.Wrap(c.Parallel.Validate(), "autodiff: invalid parallel configuration")
}

// Graph is the execution context of a set of nodes.
//
// It hands out node IDs, tracks the pass generation and owns the parameters.
// Transient nodes are referenced only by their consumers and the caller.
type Graph struct {
	cfg     Config
	backend *cpu.CPUBackend

	generation uint64
	lastID     int
	walk       uint64 // Marker for graph traversals.

	params      []*Node
	paramByName map[string]*Node

	evaluations int64

	stack []*Node // Traversal scratch, reused.
	order []*Node
}

// NewGraph creates an empty graph.
func NewGraph(cfg Config) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Graph{
		cfg:         cfg,
		backend:     cpu.New(parallel.NewPool(cfg.Parallel)),
		generation:  1,
		paramByName: make(map[string]*Node),
	}
	klog.V(1).Infof("autodiff: new graph, numerics=%s, workers=%d", cfg.Numerics, g.backend.Pool().Workers())
	return g, nil
}

// Config returns the graph configuration.
func (g *Graph) Config() Config {
	return g.cfg
}

// Generation returns the current pass number.
func (g *Graph) Generation() uint64 {
	return g.generation
}

// BeginPass starts a new pass. Every node whose value depends on a parameter,
// input or index leaf becomes stale and is recomputed on its next read.
// Nodes built only from constants stay memoized.
func (g *Graph) BeginPass() {
	g.generation++
	klog.V(1).Infof("autodiff: begin pass %d", g.generation)
}

// ZeroGradients clears the accumulated gradient of every parameter.
func (g *Graph) ZeroGradients() {
	for _, p := range g.params {
		p.ZeroGradient()
	}
}

// Reset zeroes parameter gradients and begins a new pass.
func (g *Graph) Reset() {
	g.ZeroGradients()
	g.BeginPass()
}

// Parameters returns the parameters in creation order.
func (g *Graph) Parameters() []*Node {
	out := make([]*Node, len(g.params))
	copy(out, g.params)
	return out
}

// LookupParameter returns the parameter with the given name, or nil.
func (g *Graph) LookupParameter(name string) *Node {
	return g.paramByName[name]
}

func (g *Graph) nextID() int {
	g.lastID++
	return g.lastID
}

func (g *Graph) nextWalk() uint64 {
	g.walk++
	return g.walk
}

// owns returns a *StaleGraphError if n is nil or was built by another graph.
func (g *Graph) owns(n *Node) error {
	if n == nil {
		return &StaleGraphError{Detail: "nil node"}
	}
	if n.graph != g {
		return &StaleGraphError{Node: n.id, Detail: "node belongs to a different graph"}
	}
	return nil
}

// strict reports whether non-finite checks are enabled.
func (g *Graph) strict() bool {
	return g.cfg.Numerics == Strict
}

// checkFinite returns a *NumericalError if t holds NaN or Inf under Strict numerics.
func (g *Graph) checkFinite(n *Node, phase string, t *tensor.Tensor) error {
	if !g.strict() || t == nil {
		return nil
	}
	if bad := t.NonFinite(); bad > 0 {
		return &NumericalError{Node: n.id, Op: n.kind.String(), Phase: phase, Count: bad}
	}
	return nil
}

// catchPanic runs fn and returns any panic it raised as an error. Panics from
// kernels running on pool workers are re-raised on the calling goroutine first.
func catchPanic(fn func()) error {
	switch e := exceptions.Try(fn).(type) {
	case nil:
		return nil
	case error:
		return e
	default:
		return errors.Errorf("panic: %v", e)
	}
}
