package autodiff

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/dagrad/internal/autodiff/ops"
)

// Sentinel errors. Typed errors below unwrap to them, so errors.Is works on wrapped chains.
var (
	// ErrInvalidIndex: a lookup index is not an integer row of its table.
	ErrInvalidIndex = ops.ErrInvalidIndex

	// ErrStaleGraph: a node was used against a graph it does not belong to,
	// or a leaf was changed in a way its consumers cannot follow.
	ErrStaleGraph = errors.New("stale graph")

	// ErrNumericalInstability: a NaN or Inf was produced under Strict numerics.
	ErrNumericalInstability = errors.New("numerical instability")
)

// IndexError reports an invalid lookup index. See ops.IndexError.
type IndexError = ops.IndexError

// StaleGraphError reports a node that cannot be used where it was passed.
type StaleGraphError struct {
	Node   int // Offending node ID, 0 if unknown.
	Detail string
}

// Error implements the error interface.
func (e *StaleGraphError) Error() string {
	return fmt.Sprintf("node %d: %s: %s", e.Node, ErrStaleGraph, e.Detail)
}

// Unwrap makes errors.Is(err, ErrStaleGraph) hold.
func (e *StaleGraphError) Unwrap() error {
	return ErrStaleGraph
}

// NumericalError reports non-finite values produced by a node.
//
// In the backward phase Count is the number of gradient elements that became
// NaN or Inf when the node added its contributions; values already non-finite
// in a parameter's accumulator are not attributed to it.
type NumericalError struct {
	Node  int    // ID of the producing node.
	Op    string // Operation name of the producing node.
	Phase string // "forward" or "backward".
	Count int    // Number of NaN/Inf elements found.
}

// Error implements the error interface.
func (e *NumericalError) Error() string {
	return fmt.Sprintf("node %d (%s): %s in %s pass: %d non-finite values",
		e.Node, e.Op, ErrNumericalInstability, e.Phase, e.Count)
}

// Unwrap makes errors.Is(err, ErrNumericalInstability) hold.
func (e *NumericalError) Unwrap() error {
	return ErrNumericalInstability
}
