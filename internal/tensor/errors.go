package tensor

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrShapeMismatch is the sentinel matched by every *ShapeError.
var ErrShapeMismatch = errors.New("shape mismatch")

// ShapeError reports an operation invoked on incompatible shapes.
type ShapeError struct {
	Op     string  // Operation that rejected the shapes (e.g. "matmul")
	Shapes []Shape // Offending operand shapes, in operand order
	Detail string  // What the operation expected
}

// NewShapeError builds a *ShapeError. Shapes are cloned.
func NewShapeError(op, detail string, shapes ...Shape) *ShapeError {
	cloned := make([]Shape, len(shapes))
	for i, s := range shapes {
		cloned[i] = s.Clone()
	}
	return &ShapeError{Op: op, Shapes: cloned, Detail: detail}
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	parts := make([]string, len(e.Shapes))
	for i, s := range e.Shapes {
		parts[i] = s.String()
	}
	msg := fmt.Sprintf("%s: %s [%s]", e.Op, ErrShapeMismatch, strings.Join(parts, " vs "))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap makes errors.Is(err, ErrShapeMismatch) hold.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}
