// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides define-by-run reverse-mode automatic differentiation.
//
// Operations build a DAG of nodes lazily. Values are computed when read and
// memoized for the current pass; Backward accumulates the gradient of an output
// into every ancestor that needs one.
//
// Example:
//
//	import (
//	    "github.com/born-ml/dagrad/autodiff"
//	    "github.com/born-ml/dagrad/tensor"
//	)
//
//	func main() {
//	    g, _ := autodiff.NewGraph(autodiff.DefaultConfig())
//	    w, _ := g.Parameter("w", tensor.Full(tensor.Shape{3}, 0.5))
//	    x, _ := g.Input("x", tensor.Full(tensor.Shape{3}, 2))
//
//	    wx, _ := autodiff.Mul(w, x)
//	    loss, _ := autodiff.Sum(wx)
//	    _ = loss.Backward(nil)
//
//	    fmt.Println(w.Gradient()) // Tensor(3)[2 2 2]
//	}
//
// Parameters keep accumulating gradients across Backward calls until
// Graph.ZeroGradients. After changing parameter values in place through
// Node.MutableValue, call Graph.BeginPass (or Graph.Reset) so dependent nodes
// are recomputed.
package autodiff

import (
	"github.com/born-ml/dagrad/internal/autodiff"
	"github.com/born-ml/dagrad/internal/autodiff/ops"
	"github.com/born-ml/dagrad/internal/parallel"
)

// Graph is the execution context of a set of nodes.
type Graph = autodiff.Graph

// Node is one vertex of a computation graph.
type Node = autodiff.Node

// Kind identifies the operation of a node.
type Kind = ops.Kind

// LeafKind distinguishes the leaves of a graph.
type LeafKind = autodiff.LeafKind

// Leaf kinds.
const (
	OpNode        = autodiff.OpNode
	ConstantLeaf  = autodiff.ConstantLeaf
	InputLeaf     = autodiff.InputLeaf
	IndexLeaf     = autodiff.IndexLeaf
	ParameterLeaf = autodiff.ParameterLeaf
)

// Config controls graph execution.
type Config = autodiff.Config

// ParallelConfig controls data-parallel kernel execution.
type ParallelConfig = parallel.Config

// Numerics selects how non-finite values are handled.
type Numerics = autodiff.Numerics

// Numerics modes.
const (
	Strict = autodiff.Strict
	Fast   = autodiff.Fast
)

// SparseGradient is the row-wise gradient of an embedding table.
type SparseGradient = autodiff.SparseGradient

// Contribution is one sparse gradient update.
type Contribution = autodiff.Contribution

// Stats summarizes the state of a graph.
type Stats = autodiff.Stats

// DefaultConfig returns Strict numerics (Fast with the "fastmath" build tag)
// and a worker pool sized to the CPU count.
func DefaultConfig() Config {
	return autodiff.DefaultConfig()
}

// SequentialConfig returns a parallel configuration that runs every kernel on
// the calling goroutine.
func SequentialConfig() ParallelConfig {
	return parallel.Sequential()
}

// NewGraph creates an empty graph.
func NewGraph(cfg Config) (*Graph, error) {
	return autodiff.NewGraph(cfg)
}

// NewSparseGradient creates an empty sparse gradient for a (rows, width) table.
var NewSparseGradient = autodiff.NewSparseGradient
