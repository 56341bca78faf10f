// Package cpu implements the float64 CPU kernels behind every graph operation.
//
// Kernels never allocate their outputs: the caller passes a destination tensor
// of the right shape, which lets graph nodes reuse their value buffers across
// passes. Kernels with names ending in "Accumulate" (and the *Backward kernels)
// ADD into their destination instead of overwriting it.
//
// Shapes are validated by the operation catalog before a kernel runs; a kernel
// receiving inconsistent shapes panics.
package cpu

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/dagrad/internal/parallel"
	"github.com/born-ml/dagrad/internal/tensor"
)

// CPUBackend runs kernels on the calling goroutine plus the workers of its pool.
type CPUBackend struct {
	pool *parallel.Pool
}

// New creates a new CPU backend. A nil pool runs every kernel sequentially.
func New(pool *parallel.Pool) *CPUBackend {
	if pool == nil {
		pool = parallel.NewPool(parallel.Sequential())
	}
	return &CPUBackend{
		pool: pool,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Pool returns the worker pool used for data-parallel kernels.
func (cpu *CPUBackend) Pool() *parallel.Pool {
	return cpu.pool
}

func checkSize(op string, tensors ...*tensor.Tensor) {
	n := tensors[0].NumElements()
	for _, t := range tensors[1:] {
		if t.NumElements() != n {
			exceptions.Panicf("cpu.%s: operands have %d and %d elements", op, n, t.NumElements())
		}
	}
}

func checkShape(op string, want tensor.Shape, got *tensor.Tensor) {
	if !want.Equal(got.Shape()) {
		exceptions.Panicf("cpu.%s: expected shape %s, got %s", op, want, got.Shape())
	}
}
