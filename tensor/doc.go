// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float64 buffers that flow through a dagrad graph.
//
// # Overview
//
// A Tensor is a contiguous row-major []float64 with a fixed Shape. Tensors are
// plain values: the graph copies or takes ownership of them at its boundary
// (leaf creation, SetValue, ImportValue, StateDict) and never shares its
// internal buffers except through the explicitly documented accessors.
//
// # Basic Usage
//
//	x, err := tensor.FromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(x.Shape()) // (2, 3)
//	fmt.Println(x.At(1, 2)) // 6
//
// # Broadcasting
//
// Binary graph operations follow NumPy rules: shapes are compared from the
// right, and dimensions must be equal or 1.
//
//	tensor.BroadcastShapes(tensor.Shape{4, 3}, tensor.Shape{3}) // (4, 3)
//	tensor.BroadcastShapes(tensor.Shape{4, 1}, tensor.Shape{4, 3}) // (4, 3)
//
// # Errors
//
// Shape violations are reported as *ShapeError, which matches ErrShapeMismatch
// with errors.Is.
package tensor
