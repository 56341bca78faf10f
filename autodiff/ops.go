// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff

import (
	"github.com/born-ml/dagrad/internal/autodiff"
)

// Operation builders. Each validates shapes and returns a new node without
// computing anything; all operands must belong to the same graph.

// Add returns a + b with broadcasting.
func Add(a, b *Node) (*Node, error) { return autodiff.Add(a, b) }

// Sub returns a - b with broadcasting.
func Sub(a, b *Node) (*Node, error) { return autodiff.Sub(a, b) }

// Mul returns a * b element-wise with broadcasting.
func Mul(a, b *Node) (*Node, error) { return autodiff.Mul(a, b) }

// Div returns a / b element-wise with broadcasting.
func Div(a, b *Node) (*Node, error) { return autodiff.Div(a, b) }

// MatMul returns the (M, N) product of (M, K) and (K, N) operands.
func MatMul(a, b *Node) (*Node, error) { return autodiff.MatMul(a, b) }

// VectorDot returns the row-wise dot products of two (N, K) operands as (N, 1).
func VectorDot(a, b *Node) (*Node, error) { return autodiff.VectorDot(a, b) }

// Neg returns -x.
func Neg(x *Node) (*Node, error) { return autodiff.Neg(x) }

// Square returns x².
func Square(x *Node) (*Node, error) { return autodiff.Square(x) }

// Exp returns e^x.
func Exp(x *Node) (*Node, error) { return autodiff.Exp(x) }

// Log returns ln(x).
func Log(x *Node) (*Node, error) { return autodiff.Log(x) }

// Tanh returns tanh(x).
func Tanh(x *Node) (*Node, error) { return autodiff.Tanh(x) }

// Sigmoid returns 1 / (1 + e^-x).
func Sigmoid(x *Node) (*Node, error) { return autodiff.Sigmoid(x) }

// ReLU returns max(0, x).
func ReLU(x *Node) (*Node, error) { return autodiff.ReLU(x) }

// Softmax normalizes the last axis of a 1D or 2D operand.
func Softmax(x *Node) (*Node, error) { return autodiff.Softmax(x) }

// LogSoftmax returns the log of Softmax, computed stably.
func LogSoftmax(x *Node) (*Node, error) { return autodiff.LogSoftmax(x) }

// Sum returns the scalar sum of all elements.
func Sum(x *Node) (*Node, error) { return autodiff.Sum(x) }

// Mean returns the scalar mean of all elements.
func Mean(x *Node) (*Node, error) { return autodiff.Mean(x) }

// Transpose swaps the axes of a 2D operand.
func Transpose(x *Node) (*Node, error) { return autodiff.Transpose(x) }

// Concat joins operands along axis.
func Concat(axis int, xs ...*Node) (*Node, error) { return autodiff.Concat(axis, xs...) }

// Slice selects [start, end) along axis.
func Slice(x *Node, axis, start, end int) (*Node, error) {
	return autodiff.Slice(x, axis, start, end)
}

// Lookup gathers the rows of table selected by an index leaf. A parameter
// table receives a sparse gradient.
func Lookup(table, indices *Node) (*Node, error) { return autodiff.Lookup(table, indices) }

// Apply returns f(x) element-wise; df(x, y) is the derivative at x where y = f(x).
func Apply(x *Node, name string, f func(x float64) float64, df func(x, y float64) float64) (*Node, error) {
	return autodiff.Apply(x, name, f, df)
}
