// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff

import (
	"github.com/born-ml/dagrad/internal/autodiff"
	"github.com/born-ml/dagrad/internal/tensor"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrShapeMismatch        = tensor.ErrShapeMismatch
	ErrInvalidIndex         = autodiff.ErrInvalidIndex
	ErrStaleGraph           = autodiff.ErrStaleGraph
	ErrNumericalInstability = autodiff.ErrNumericalInstability
)

// Typed errors, matched with errors.As.
type (
	ShapeError      = tensor.ShapeError
	IndexError      = autodiff.IndexError
	StaleGraphError = autodiff.StaleGraphError
	NumericalError  = autodiff.NumericalError
)
