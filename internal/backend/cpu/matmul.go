package cpu

import (
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/dagrad/internal/tensor"
)

// MatMul computes out = a @ b for 2D tensors: (M, K) @ (K, N) -> (M, N).
// The product is delegated to gonum's Gemm.
func (cpu *CPUBackend) MatMul(out, a, b *tensor.Tensor) {
	cpu.gemm(out, a, b, false, false, 0)
}

// MatMulAccumulate computes dst += op(a) @ op(b), where op transposes its
// operand when the matching flag is set. Used for the matmul gradients
// dA += G @ Bᵀ and dB += Aᵀ @ G.
func (cpu *CPUBackend) MatMulAccumulate(dst, a, b *tensor.Tensor, transA, transB bool) {
	cpu.gemm(dst, a, b, transA, transB, 1)
}

func (cpu *CPUBackend) gemm(c, a, b *tensor.Tensor, transA, transB bool, beta float64) {
	if a.Rank() != 2 || b.Rank() != 2 || c.Rank() != 2 {
		exceptions.Panicf("cpu.matmul: only 2D tensors supported, got %dD, %dD -> %dD", a.Rank(), b.Rank(), c.Rank())
	}
	ga, gb, gc := general(a), general(b), general(c)

	m, k := ga.Rows, ga.Cols
	if transA {
		m, k = k, m
	}
	kb, n := gb.Rows, gb.Cols
	if transB {
		kb, n = n, kb
	}
	if k != kb || gc.Rows != m || gc.Cols != n {
		exceptions.Panicf("cpu.matmul: shape mismatch %s x %s -> %s (transA=%v, transB=%v)",
			a.Shape(), b.Shape(), c.Shape(), transA, transB)
	}

	blas64.Gemm(transpose(transA), transpose(transB), 1, ga, gb, beta, gc)
}

// general views a rank-2 tensor as a row-major BLAS matrix without copying.
func general(t *tensor.Tensor) blas64.General {
	shape := t.Shape()
	return blas64.General{
		Rows:   shape[0],
		Cols:   shape[1],
		Stride: shape[1],
		Data:   t.Data(),
	}
}

func transpose(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}
