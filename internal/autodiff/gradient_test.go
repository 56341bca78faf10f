package autodiff

import (
	"testing"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/dagrad/internal/tensor"
)

func rows(values [][]float64) *tensor.Tensor {
	return must.M1(tensor.FromRows(values))
}

func TestAccumulator_LazyZeroing(t *testing.T) {
	acc := newAccumulator(tensor.Shape{3})
	assert.False(t, acc.touched())
	assert.Nil(t, acc.denseValue())
	assert.Equal(t, 0, acc.byteSize())

	buf := acc.target()
	buf.Fill(2)
	assert.True(t, acc.touched())
	assert.Equal(t, []float64{2, 2, 2}, acc.denseValue().Data())

	acc.zero()
	assert.False(t, acc.touched())
	assert.Nil(t, acc.denseValue())
	assert.Equal(t, []float64{2, 2, 2}, buf.Data(), "zeroing is deferred")

	again := acc.target()
	assert.Same(t, buf, again, "the buffer is reused")
	assert.Equal(t, []float64{0, 0, 0}, again.Data())
	assert.Equal(t, 24, acc.byteSize())
}

func TestAccumulator_SparsePart(t *testing.T) {
	acc := newAccumulator(tensor.Shape{4, 2})
	sparse := acc.sparseTarget()
	assert.Same(t, sparse, acc.sparseTarget())
	assert.False(t, acc.touched())

	sparse.AddRows([]int{1}, rows([][]float64{{3, -3}}))
	assert.True(t, acc.touched())
	assert.Nil(t, acc.denseValue())

	acc.clamp(-1, 1)
	assert.Equal(t, map[int][]float64{1: {1, -1}}, sparse.Coalesce())

	acc.zero()
	assert.False(t, acc.touched())
	assert.Equal(t, 0, sparse.Len())
}

func TestSparseGradient_AddRowsCopies(t *testing.T) {
	s := NewSparseGradient(tensor.Shape{5, 2})
	assert.True(t, s.TableShape().Equal(tensor.Shape{5, 2}))

	ids := []int{4, 0}
	r := rows([][]float64{{1, 2}, {3, 4}})
	s.AddRows(ids, r)
	ids[0] = 2
	r.Data()[0] = 100

	require.Equal(t, 1, s.Len())
	c := s.Contributions()[0]
	assert.Equal(t, []int{4, 0}, c.Indices)
	assert.Equal(t, []float64{1, 2, 3, 4}, c.Rows.Data())
}

func TestSparseGradient_ReusesBuffersAfterClear(t *testing.T) {
	s := NewSparseGradient(tensor.Shape{3, 2})
	s.AddRows([]int{0, 1}, rows([][]float64{{1, 1}, {2, 2}}))
	first := s.Contributions()[0].Rows
	size := s.ByteSize()

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Coalesce())

	s.AddRows([]int{2, 2}, rows([][]float64{{5, 5}, {6, 6}}))
	assert.Same(t, first, s.Contributions()[0].Rows)
	assert.Equal(t, size, s.ByteSize())
	assert.Equal(t, map[int][]float64{2: {11, 11}}, s.Coalesce())

	// A contribution of another length gets a new buffer.
	s.Clear()
	s.AddRows([]int{1}, rows([][]float64{{7, 8}}))
	assert.Equal(t, []float64{7, 8}, s.Contributions()[0].Rows.Data())
}

func TestSparseGradient_AddTo(t *testing.T) {
	s := NewSparseGradient(tensor.Shape{3, 2})
	s.AddRows([]int{0, 2, 0}, rows([][]float64{{1, 2}, {3, 4}, {5, 6}}))
	s.AddRows([]int{2}, rows([][]float64{{1, 1}}))

	dense := tensor.Full(tensor.Shape{3, 2}, 1)
	require.NoError(t, s.AddTo(dense))
	assert.Equal(t, []float64{7, 9, 1, 1, 5, 6}, dense.Data())

	err := s.AddTo(tensor.Zeros(tensor.Shape{2, 3}))
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

func TestClampSlice(t *testing.T) {
	data := []float64{-5, -0.5, 0, 0.5, 5}
	clampSlice(data, -1, 1)
	assert.Equal(t, []float64{-1, -0.5, 0, 0.5, 1}, data)
}
