// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/dagrad/tensor"
)

func TestPublicConstructors(t *testing.T) {
	x, err := tensor.FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, "(2, 3)", x.Shape().String())
	assert.Equal(t, 6.0, x.At(1, 2))

	assert.Equal(t, []float64{0, 0}, tensor.Zeros(tensor.Shape{2}).Data())
	assert.Equal(t, []float64{7, 7}, tensor.Full(tensor.Shape{2}, 7).Data())
	assert.Equal(t, 0, tensor.Scalar(1).Rank())

	_, err = tensor.New(tensor.Shape{2, 2}, []float64{1})
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
	var shapeErr *tensor.ShapeError
	assert.True(t, errors.As(err, &shapeErr))
}

func TestPublicBroadcastShapes(t *testing.T) {
	out, err := tensor.BroadcastShapes(tensor.Shape{4, 1}, tensor.Shape{3})
	require.NoError(t, err)
	assert.True(t, out.Equal(tensor.Shape{4, 3}))

	_, err = tensor.BroadcastShapes(tensor.Shape{2}, tensor.Shape{3})
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}
