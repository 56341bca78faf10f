// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/dagrad/internal/tensor"
)

// Type aliases for public API

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3} is a 2×3 matrix; Shape{} is a scalar.
type Shape = tensor.Shape

// Tensor is a dense row-major float64 buffer.
type Tensor = tensor.Tensor

// ShapeError reports incompatible or invalid shapes.
type ShapeError = tensor.ShapeError

// ErrShapeMismatch is matched by every *ShapeError.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// MaxElements is the largest element count a valid shape may hold.
const MaxElements = tensor.MaxElements

// New wraps data, which must hold shape.NumElements() values. The tensor takes
// ownership of data.
func New(shape Shape, data []float64) (*Tensor, error) {
	return tensor.New(shape, data)
}

// Zeros allocates a zero-filled tensor. It panics on an invalid shape.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Full allocates a tensor with every element set to v.
func Full(shape Shape, v float64) *Tensor {
	return tensor.Full(shape, v)
}

// Scalar returns a rank-0 tensor holding v.
func Scalar(v float64) *Tensor {
	return tensor.Scalar(v)
}

// FromRows builds a 2D tensor from equally long rows.
func FromRows(rows [][]float64) (*Tensor, error) {
	return tensor.FromRows(rows)
}

// BroadcastShapes returns the shape two operands broadcast to.
func BroadcastShapes(a, b Shape) (Shape, error) {
	out, _, err := tensor.BroadcastShapes(a, b)
	return out, err
}
