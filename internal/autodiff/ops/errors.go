package ops

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidIndex is the sentinel matched by every *IndexError.
var ErrInvalidIndex = errors.New("invalid index")

// IndexError reports a lookup index that is not an integer row of the table.
type IndexError struct {
	Op       string  // Operation that read the index
	Node     int     // ID of the node whose evaluation failed, 0 if unknown
	Position int     // Position of the offending value in the index tensor
	Index    float64 // The offending value
	Limit    int     // Number of table rows, -1 if no table was involved
}

// Error implements the error interface.
func (e *IndexError) Error() string {
	bound := "non-negative integer"
	if e.Limit >= 0 {
		bound = fmt.Sprintf("integer in [0, %d)", e.Limit)
	}
	msg := fmt.Sprintf("%s: %s %v at position %d (want %s)", e.Op, ErrInvalidIndex, e.Index, e.Position, bound)
	if e.Node != 0 {
		msg = fmt.Sprintf("node %d: %s", e.Node, msg)
	}
	return msg
}

// Unwrap makes errors.Is(err, ErrInvalidIndex) hold.
func (e *IndexError) Unwrap() error {
	return ErrInvalidIndex
}
