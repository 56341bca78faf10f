package tensor

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Shape represents the dimensions of a tensor.
// An empty shape is a scalar holding a single element.
type Shape []int

// NumElements returns the product of the dimensions; 1 for a scalar.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// MaxElements bounds the element count of a valid shape, so that the byte size
// of its float64 storage fits in an int.
const MaxElements = math.MaxInt / 8

// Validate rejects shapes with a zero or negative dimension, or with more than
// MaxElements elements.
func (s Shape) Validate() error {
	n := 1
	for i, d := range s {
		if d <= 0 {
			return NewShapeError("shape", fmt.Sprintf("dimension %d is %d, must be positive", i, d), s)
		}
		if n > MaxElements/d {
			return NewShapeError("shape", fmt.Sprintf("more than %d elements", MaxElements), s)
		}
		n *= d
	}
	return nil
}

// Equal reports whether both shapes have the same dimensions.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns a copy of the shape. A nil shape clones to an empty one.
func (s Shape) Clone() Shape {
	return append(Shape{}, s...)
}

// ComputeStrides returns row-major strides: stride[i] is the product of the
// dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	step := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = step
		step *= s[i]
	}
	return strides
}

// Rows returns the size of the leading dimension, treating scalars as one row.
func (s Shape) Rows() int {
	if len(s) == 0 {
		return 1
	}
	return s[0]
}

// RowSize returns the number of elements in one row (product of all trailing dimensions).
func (s Shape) RowSize() int {
	if len(s) <= 1 {
		return 1
	}
	return Shape(s[1:]).NumElements()
}

// String renders the shape as "(2, 3)".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = fmt.Sprint(dim)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// BroadcastShapes aligns a and b on their trailing dimensions; each pair must
// match or contain a 1, and missing leading dimensions count as 1. It also
// reports whether either operand has to be broadcast, e.g.
//
//	(3, 1) (3, 5) -> (3, 5) true
//	(3, 5) (3, 5) -> (3, 5) false
//	(3, 4) (3, 5) -> *ShapeError
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	rank := max(len(a), len(b))
	out := make(Shape, rank)
	broadcast := len(a) != len(b)
	for i := 1; i <= rank; i++ {
		da, db := trailingDim(a, i), trailingDim(b, i)
		switch {
		case da == db:
			out[rank-i] = da
		case da == 1 || db == 1:
			out[rank-i] = da * db
			broadcast = true
		default:
			return nil, false, NewShapeError("broadcast",
				fmt.Sprintf("dimension %d: %d vs %d", rank-i, da, db), a, b)
		}
	}
	return out, broadcast, nil
}

// trailingDim returns the i-th dimension counted from the end, or 1 past the rank.
func trailingDim(s Shape, i int) int {
	if i > len(s) {
		return 1
	}
	return s[len(s)-i]
}

// BroadcastStrides returns strides to walk a tensor of shape s as if it had shape out.
// Broadcast dimensions get stride 0. out must be a valid broadcast of s.
func BroadcastStrides(s, out Shape) []int {
	strides := make([]int, len(out))
	own := s.ComputeStrides()
	offset := len(out) - len(s)
	for i := range out {
		j := i - offset
		if j < 0 || s[j] == 1 {
			continue
		}
		strides[i] = own[j]
	}
	return strides
}
