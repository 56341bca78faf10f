package autodiff_test

import (
	"math"
	"sync"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/dagrad/internal/autodiff"
	"github.com/born-ml/dagrad/internal/parallel"
	"github.com/born-ml/dagrad/internal/tensor"
)

func newGraph(t *testing.T, numerics autodiff.Numerics) *autodiff.Graph {
	t.Helper()
	g, err := autodiff.NewGraph(autodiff.Config{Numerics: numerics, Parallel: parallel.Sequential()})
	require.NoError(t, err)
	return g
}

func vec(values ...float64) *tensor.Tensor {
	return must.M1(tensor.New(tensor.Shape{len(values)}, values))
}

func TestScenario_MulAdd(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	a := must.M1(g.Parameter("a", vec(2, 3)))
	b := must.M1(g.Parameter("b", vec(4, 5)))

	// y = (a*b) + a
	ab := must.M1(autodiff.Mul(a, b))
	y := must.M1(autodiff.Add(ab, a))

	assert.Equal(t, []float64{10, 18}, must.M1(y.Value()).Data())

	require.NoError(t, y.Backward(tensor.Full(tensor.Shape{2}, 1)))
	assert.Equal(t, []float64{5, 6}, a.Gradient().Data())
	assert.Equal(t, []float64{2, 3}, b.Gradient().Data())
}

func TestScenario_MatMul(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	a := must.M1(g.Parameter("A", must.M1(tensor.FromRows([][]float64{{1, 2, 3}, {4, 5, 6}}))))
	b := must.M1(g.Parameter("B", must.M1(tensor.FromRows([][]float64{{7, 8}, {9, 10}, {11, 12}}))))
	c := must.M1(autodiff.MatMul(a, b))

	assert.True(t, c.Shape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float64{58, 64, 139, 154}, must.M1(c.Value()).Data())

	seed := must.M1(tensor.FromRows([][]float64{{1, 0}, {2, 1}}))
	require.NoError(t, c.Backward(seed))

	require.True(t, a.Gradient().Shape().Equal(a.Shape()))
	require.True(t, b.Gradient().Shape().Equal(b.Shape()))
	// dA = G @ Bᵀ
	assert.Equal(t, []float64{7, 9, 11, 22, 28, 34}, a.Gradient().Data())
	// dB = Aᵀ @ G
	assert.Equal(t, []float64{9, 4, 12, 5, 15, 6}, b.Gradient().Data())
}

func TestFanOut_SumsEveryPath(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	a := must.M1(g.Parameter("a", vec(1.5, -2)))

	// c = a * a: both operands are the same node.
	c := must.M1(autodiff.Mul(a, a))
	require.NoError(t, c.Backward(tensor.Full(tensor.Shape{2}, 1)))
	assert.Equal(t, []float64{3, -4}, a.Gradient().Data())

	// Diamond: b = exp(a), d = b*b + b, dd/da = (2b + 1) * b.
	g.ZeroGradients()
	b := must.M1(autodiff.Exp(a))
	bb := must.M1(autodiff.Mul(b, b))
	d := must.M1(autodiff.Add(bb, b))
	loss := must.M1(autodiff.Sum(d))
	require.NoError(t, loss.Backward(nil))

	for i, x := range []float64{1.5, -2} {
		e := math.Exp(x)
		assert.InDelta(t, (2*e+1)*e, a.Gradient().Data()[i], 1e-12)
	}
}

func TestMemoization_ReadTwiceComputesOnce(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	x := must.M1(g.Input("x", vec(1, 2, 3)))

	calls := 0
	counted := must.M1(autodiff.Apply(x, "counted", func(v float64) float64 {
		calls++
		return v * 10
	}, func(_, _ float64) float64 { return 10 }))

	first := must.M1(counted.Value())
	second := must.M1(counted.Value())
	assert.Same(t, first, second)
	assert.Equal(t, 3, calls, "one call per element, once")
	assert.Equal(t, 1, counted.Evaluations())
	assert.True(t, counted.IsClean())

	// A new pass invalidates nodes depending on inputs.
	g.BeginPass()
	assert.False(t, counted.IsClean())
	_ = must.M1(counted.Value())
	assert.Equal(t, 2, counted.Evaluations())
}

func TestMemoization_ConstantSubgraphSurvivesPasses(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	c := must.M1(g.Constant(vec(1, 2)))
	sq := must.M1(autodiff.Square(c))

	_ = must.M1(sq.Value())
	g.BeginPass()
	g.BeginPass()
	assert.True(t, sq.IsClean())
	_ = must.M1(sq.Value())
	assert.Equal(t, 1, sq.Evaluations())
}

func TestLaziness_UnusedBranchNeverComputed(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	x := must.M1(g.Input("x", vec(1, 2)))

	calls := 0
	unused := must.M1(autodiff.Apply(x, "unused", func(v float64) float64 {
		calls++
		return v
	}, func(_, _ float64) float64 { return 1 }))
	used := must.M1(autodiff.Neg(x))

	// Construction alone computes nothing.
	assert.Equal(t, 0, used.Evaluations())

	assert.Equal(t, []float64{-1, -2}, must.M1(used.Value()).Data())
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, unused.Evaluations())
}

func TestSetValue_InvalidatesDependents(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	x := must.M1(g.Input("x", vec(1, 2)))
	y := must.M1(autodiff.Square(x))

	assert.Equal(t, []float64{1, 4}, must.M1(y.Value()).Data())
	require.NoError(t, x.SetValue(vec(3, 4)))
	assert.Equal(t, []float64{9, 16}, must.M1(y.Value()).Data())
	assert.Equal(t, 2, y.Evaluations())

	err := x.SetValue(vec(1, 2, 3))
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	c := must.M1(g.Constant(vec(1)))
	assert.Error(t, c.SetValue(vec(2)))
}

func TestMutableValue_NeedsBeginPass(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	p := must.M1(g.Parameter("p", vec(1, 2)))
	y := must.M1(autodiff.Neg(p))
	_ = must.M1(y.Value())

	v := must.M1(p.MutableValue())
	v.Data()[0] = 10
	// Not detected until the next pass.
	assert.Equal(t, []float64{-1, -2}, must.M1(y.Value()).Data())

	g.BeginPass()
	assert.Equal(t, []float64{-10, -2}, must.M1(y.Value()).Data())

	sq := must.M1(autodiff.Square(p))
	_, err := sq.MutableValue()
	assert.Error(t, err)
}

func TestSparseGradient_RepeatedIndicesAccumulate(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	table := must.M1(g.Parameter("emb", must.M1(tensor.FromRows([][]float64{{0, 1}, {2, 3}, {4, 5}, {6, 7}}))))
	idx := must.M1(g.Indices("ids", []int{1, 3, 1}))

	rows := must.M1(autodiff.Lookup(table, idx))
	assert.Equal(t, []float64{2, 3, 6, 7, 2, 3}, must.M1(rows.Value()).Data())

	loss := must.M1(autodiff.Sum(rows))
	require.NoError(t, loss.Backward(nil))

	assert.Nil(t, table.Gradient(), "a lookup table parameter has no dense part")
	sparse := table.SparseGradient()
	require.NotNil(t, sparse)
	assert.Equal(t, 1, sparse.Len())
	assert.Equal(t, map[int][]float64{1: {2, 2}, 3: {1, 1}}, sparse.Coalesce())
	assert.Equal(t, []float64{0, 0, 2, 2, 0, 0, 1, 1}, table.DenseGradient().Data())

	// A second backward without zeroing adds a second contribution.
	require.NoError(t, loss.Backward(nil))
	assert.Equal(t, 2, sparse.Len())
	assert.Equal(t, map[int][]float64{1: {4, 4}, 3: {2, 2}}, sparse.Coalesce())

	g.ZeroGradients()
	assert.Equal(t, 0, sparse.Len())
	assert.False(t, table.HasGradient())
}

func TestLookup_SetIndicesBetweenPasses(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	table := must.M1(g.Parameter("emb", must.M1(tensor.FromRows([][]float64{{1}, {2}, {3}}))))
	idx := must.M1(g.Indices("ids", []int{0, 0}))
	rows := must.M1(autodiff.Lookup(table, idx))
	loss := must.M1(autodiff.Sum(rows))

	assert.Equal(t, 2.0, must.M1(loss.Value()).Data()[0])

	require.NoError(t, idx.SetIndices([]int{2, 1}))
	assert.Equal(t, 5.0, must.M1(loss.Value()).Data()[0])
	assert.Equal(t, []int{2, 1}, must.M1(idx.Indices()))

	require.NoError(t, loss.Backward(nil))
	assert.Equal(t, []float64{0, 1, 1}, table.DenseGradient().Data())

	err := idx.SetIndices([]int{1})
	assert.True(t, errors.Is(err, autodiff.ErrStaleGraph))
	var stale *autodiff.StaleGraphError
	require.True(t, errors.As(err, &stale))
	assert.Equal(t, idx.ID(), stale.Node)

	err = idx.SetIndices([]int{1, -1})
	assert.True(t, errors.Is(err, autodiff.ErrInvalidIndex))
}

func TestLookup_NonParameterTableGetsDenseGradient(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	w := must.M1(g.Parameter("w", must.M1(tensor.FromRows([][]float64{{1, 1}, {2, 2}}))))
	two := must.M1(g.Constant(tensor.Scalar(2)))
	table := must.M1(autodiff.Mul(w, two))
	idx := must.M1(g.Indices("ids", []int{1, 1, 0}))

	loss := must.M1(autodiff.Sum(must.M1(autodiff.Lookup(table, idx))))
	require.NoError(t, loss.Backward(nil))

	assert.Nil(t, w.SparseGradient())
	// Row 1 is looked up twice, row 0 once, each scaled by 2.
	assert.Equal(t, []float64{2, 2, 4, 4}, w.Gradient().Data())
}

func TestLookup_InvalidIndexOnRead(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	table := must.M1(g.Parameter("emb", tensor.Zeros(tensor.Shape{3, 2})))
	idx := must.M1(g.Indices("ids", []int{0, 5}))
	rows := must.M1(autodiff.Lookup(table, idx))

	_, err := rows.Value()
	require.Error(t, err)
	assert.True(t, errors.Is(err, autodiff.ErrInvalidIndex))

	var indexErr *autodiff.IndexError
	require.True(t, errors.As(err, &indexErr))
	assert.Equal(t, rows.ID(), indexErr.Node)
	assert.Equal(t, 1, indexErr.Position)
	assert.Equal(t, 3, indexErr.Limit)

	// Backward reports the same error.
	err = must.M1(autodiff.Sum(rows)).Backward(nil)
	assert.True(t, errors.Is(err, autodiff.ErrInvalidIndex))

	// Lookup only accepts index leaves.
	notIdx := must.M1(g.Input("x", vec(0, 1)))
	_, err = autodiff.Lookup(table, notIdx)
	assert.True(t, errors.Is(err, autodiff.ErrInvalidIndex))

	_, err = g.Indices("neg", []int{-1})
	assert.True(t, errors.Is(err, autodiff.ErrInvalidIndex))
}

func TestConstruction_ShapeMismatch(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	a := must.M1(g.Input("a", tensor.Zeros(tensor.Shape{2, 3})))
	b := must.M1(g.Input("b", tensor.Zeros(tensor.Shape{2, 3})))

	_, err := autodiff.MatMul(a, b)
	require.Error(t, err)
	var shapeErr *tensor.ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "matmul", shapeErr.Op)
	assert.Contains(t, err.Error(), "(2, 3)")

	_, err = autodiff.Add(a, must.M1(g.Input("c", tensor.Zeros(tensor.Shape{3, 2}))))
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

func TestConstruction_ForeignGraph(t *testing.T) {
	g1 := newGraph(t, autodiff.Strict)
	g2 := newGraph(t, autodiff.Strict)
	a := must.M1(g1.Input("a", vec(1)))
	b := must.M1(g2.Input("b", vec(1)))

	_, err := autodiff.Add(a, b)
	assert.True(t, errors.Is(err, autodiff.ErrStaleGraph))

	_, err = autodiff.Neg(nil)
	assert.True(t, errors.Is(err, autodiff.ErrStaleGraph))

	p := must.M1(g1.Parameter("p", vec(1)))
	assert.True(t, errors.Is(g2.Backward(p, nil), autodiff.ErrStaleGraph))
}

func TestBackward_Seeds(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	p := must.M1(g.Parameter("p", vec(1, 2)))
	y := must.M1(autodiff.Square(p))

	err := y.Backward(nil)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch), "implicit seed needs a single element")

	err = y.Backward(vec(1, 1, 1))
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	require.NoError(t, y.Backward(vec(1, 0.5)))
	assert.Equal(t, []float64{2, 2}, p.Gradient().Data())

	// A scalar parameter can be its own output.
	s := must.M1(g.Parameter("s", tensor.Scalar(3)))
	require.NoError(t, s.Backward(nil))
	assert.Equal(t, []float64{1}, s.Gradient().Data())
}

func TestBackward_NoGradientIsNoop(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	x := must.M1(g.Input("x", vec(1, 2)))
	y := must.M1(autodiff.Sum(x))
	assert.False(t, y.NeedsGradient())
	assert.NoError(t, y.Backward(nil))
	assert.Equal(t, 0, y.Evaluations(), "no-op backward does not evaluate")
}

func TestBackward_ParameterGradientsAccumulateUntilZeroed(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	p := must.M1(g.Parameter("p", vec(3)))
	loss := must.M1(autodiff.Sum(must.M1(autodiff.Square(p))))

	require.NoError(t, loss.Backward(nil))
	require.NoError(t, loss.Backward(nil))
	assert.Equal(t, []float64{12}, p.Gradient().Data())

	g.Reset()
	assert.Nil(t, p.Gradient())
	require.NoError(t, loss.Backward(nil))
	assert.Equal(t, []float64{6}, p.Gradient().Data())
}

func TestNumerics_StrictReportsProducingNode(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	x := must.M1(g.Parameter("x", vec(1, -1)))
	y := must.M1(autodiff.Log(x))

	_, err := y.Value()
	require.Error(t, err)
	assert.True(t, errors.Is(err, autodiff.ErrNumericalInstability))
	var numErr *autodiff.NumericalError
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, y.ID(), numErr.Node)
	assert.Equal(t, "log", numErr.Op)
	assert.Equal(t, "forward", numErr.Phase)
	assert.Equal(t, 1, numErr.Count)
	assert.False(t, y.IsClean())
}

func TestNumerics_StrictBackward(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	x := must.M1(g.Parameter("x", vec(1)))
	y := must.M1(autodiff.Apply(x, "steep", func(v float64) float64 { return v }, func(_, _ float64) float64 {
		return math.Inf(1)
	}))
	loss := must.M1(autodiff.Sum(y))

	err := loss.Backward(nil)
	var numErr *autodiff.NumericalError
	require.True(t, errors.As(err, &numErr))
	assert.Equal(t, y.ID(), numErr.Node)
	assert.Equal(t, "backward", numErr.Phase)
}

func TestNumerics_StrictBackwardBlamesOnlyNewValues(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	x := must.M1(g.Parameter("x", vec(1, 2)))
	bad := must.M1(autodiff.Apply(x, "steep", func(v float64) float64 { return v }, func(v, _ float64) float64 {
		if v == 1 {
			return math.NaN()
		}
		return 1
	}))
	require.Error(t, must.M1(autodiff.Sum(bad)).Backward(nil))
	require.Equal(t, 1, x.Gradient().NonFinite())

	// A later micro-batch through a well-behaved op does not inherit the blame.
	scale := must.M1(g.Constant(vec(3, 3)))
	good := must.M1(autodiff.Sum(must.M1(autodiff.Mul(x, scale))))
	require.NoError(t, good.Backward(nil))
	assert.Equal(t, 1, x.Gradient().NonFinite())
	assert.Equal(t, 4.0, x.Gradient().Data()[1])
}

func TestNumerics_FastPropagatesSilently(t *testing.T) {
	g := newGraph(t, autodiff.Fast)
	x := must.M1(g.Parameter("x", vec(1, -1)))
	y := must.M1(autodiff.Log(x))
	loss := must.M1(autodiff.Sum(y))

	v := must.M1(loss.Value())
	assert.True(t, math.IsNaN(v.Data()[0]))
	require.NoError(t, loss.Backward(nil))
	assert.Equal(t, []float64{1, -1}, x.Gradient().Data())
}

func TestNumerics_SameResultsWhenFinite(t *testing.T) {
	build := func(numerics autodiff.Numerics) ([]float64, []float64) {
		g := newGraph(t, numerics)
		x := must.M1(g.Parameter("x", must.M1(tensor.FromRows([][]float64{{0.1, 0.7, -0.3}, {1.2, -0.4, 0.0}}))))
		loss := must.M1(autodiff.Mean(must.M1(autodiff.LogSoftmax(must.M1(autodiff.Tanh(x))))))
		require.NoError(t, loss.Backward(nil))
		return must.M1(loss.Value()).Data(), x.Gradient().Data()
	}
	strictValue, strictGrad := build(autodiff.Strict)
	fastValue, fastGrad := build(autodiff.Fast)
	assert.Equal(t, strictValue, fastValue)
	assert.Equal(t, strictGrad, fastGrad)
}

func TestPanicInRuleBecomesError(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	x := must.M1(g.Input("x", vec(1)))
	boom := must.M1(autodiff.Apply(x, "boom", func(float64) float64 {
		panic(errors.New("kernel failure"))
	}, func(_, _ float64) float64 { return 0 }))

	_, err := boom.Value()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel failure")
}

func TestPanicWithAnyValueBecomesError(t *testing.T) {
	configs := map[string]parallel.Config{
		"sequential": parallel.Sequential(),
		"pool":       {Enabled: true, NumWorkers: 4, MinChunkSize: 16},
	}
	identity := func(v float64) float64 { return v }
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			g := must.M1(autodiff.NewGraph(autodiff.Config{Numerics: autodiff.Strict, Parallel: cfg}))
			x := must.M1(g.Parameter("x", tensor.Full(tensor.Shape{4096}, 1)))

			forward := must.M1(autodiff.Apply(x, "forward_boom", func(float64) float64 {
				panic("forward boom")
			}, func(_, _ float64) float64 { return 0 }))
			_, err := forward.Value()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "forward boom")

			y := must.M1(autodiff.Apply(x, "backward_boom", identity, func(_, _ float64) float64 {
				panic("backward boom")
			}))
			loss := must.M1(autodiff.Sum(y))
			err = loss.Backward(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "backward boom")
		})
	}
}

func TestIndependentGraphs_Concurrent(t *testing.T) {
	run := func(cfg parallel.Config, steps int) ([]float64, error) {
		g, err := autodiff.NewGraph(autodiff.Config{Numerics: autodiff.Strict, Parallel: cfg})
		if err != nil {
			return nil, err
		}
		data := make([]float64, 8*16)
		for i := range data {
			data[i] = math.Cos(float64(i)) / 2
		}
		x, err := g.Parameter("x", must.M1(tensor.New(tensor.Shape{8, 16}, data)))
		if err != nil {
			return nil, err
		}
		h := must.M1(autodiff.Tanh(must.M1(autodiff.Mul(x, x))))
		sm := must.M1(autodiff.Softmax(h))
		stacked := must.M1(autodiff.Concat(0, sm, h))
		window := must.M1(autodiff.Slice(stacked, 0, 4, 12))
		loss := must.M1(autodiff.Mean(must.M1(autodiff.Transpose(window))))

		var grad []float64
		for range steps {
			if err := loss.Backward(nil); err != nil {
				return nil, err
			}
			grad = x.DenseGradient().Data()
			g.Reset()
		}
		return grad, nil
	}

	want, err := run(parallel.Sequential(), 1)
	require.NoError(t, err)

	const workers = 4
	grads := make([][]float64, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			grads[i], errs[i] = run(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 2}, 5)
		}()
	}
	wg.Wait()
	for i := range workers {
		require.NoError(t, errs[i])
		assert.InDeltaSlice(t, want, grads[i], 1e-12, "graph %d", i)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	run := func(cfg parallel.Config) ([]float64, []float64) {
		g, err := autodiff.NewGraph(autodiff.Config{Numerics: autodiff.Strict, Parallel: cfg})
		require.NoError(t, err)

		data := make([]float64, 64*8)
		for i := range data {
			data[i] = math.Sin(float64(i))
		}
		w := must.M1(g.Parameter("w", must.M1(tensor.New(tensor.Shape{64, 8}, data))))
		bias := must.M1(g.Parameter("bias", tensor.Full(tensor.Shape{8}, 0.1)))
		h := must.M1(autodiff.Sigmoid(must.M1(autodiff.Add(w, bias))))
		sm := must.M1(autodiff.Softmax(h))
		loss := must.M1(autodiff.Sum(must.M1(autodiff.Mul(sm, h))))
		require.NoError(t, loss.Backward(nil))
		return w.Gradient().Data(), bias.Gradient().Data()
	}

	seqW, seqB := run(parallel.Sequential())
	parW, parB := run(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 3})
	assert.Equal(t, seqW, parW)
	assert.InDeltaSlice(t, seqB, parB, 1e-12)
}

func TestConfigValidate(t *testing.T) {
	_, err := autodiff.NewGraph(autodiff.Config{Numerics: 7, Parallel: parallel.Sequential()})
	assert.Error(t, err)

	_, err = autodiff.NewGraph(autodiff.Config{Parallel: parallel.Config{Enabled: true, NumWorkers: 0, MinChunkSize: 1}})
	assert.Error(t, err)

	assert.Equal(t, "strict", autodiff.Strict.String())
	assert.Equal(t, "fast", autodiff.Fast.String())
}

func TestParameters(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	a := must.M1(g.Parameter("a", vec(1)))
	b := must.M1(g.Parameter("b", vec(2)))
	assert.Equal(t, []*autodiff.Node{a, b}, g.Parameters())
	assert.Same(t, b, g.LookupParameter("b"))
	assert.Nil(t, g.LookupParameter("c"))

	_, err := g.Parameter("a", vec(3))
	assert.Error(t, err)
	_, err = g.Parameter("", vec(3))
	assert.Error(t, err)
	_, err = g.Parameter("nil", nil)
	assert.Error(t, err)

	assert.True(t, a.IsParameter())
	assert.Equal(t, autodiff.ParameterLeaf, a.Leaf())
	assert.Less(t, a.ID(), b.ID())
	assert.Equal(t, "a", a.Name())
}

func TestNodeIDsOrderParentsFirst(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	a := must.M1(g.Input("a", vec(1, 2)))
	b := must.M1(autodiff.Exp(a))
	c := must.M1(autodiff.Concat(0, a, b, a))

	for _, p := range c.Parents() {
		assert.Less(t, p.ID(), c.ID())
	}
	assert.Equal(t, "concat", c.Name())
	assert.Contains(t, c.String(), "(6)")
}

func TestClampGradient(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	p := must.M1(g.Parameter("p", vec(-3, 0.1, 4)))
	table := must.M1(g.Parameter("emb", tensor.Full(tensor.Shape{2, 1}, 5)))
	idx := must.M1(g.Indices("ids", []int{0}))

	sq := must.M1(autodiff.Sum(must.M1(autodiff.Square(p))))
	emb := must.M1(autodiff.Sum(must.M1(autodiff.Square(must.M1(autodiff.Lookup(table, idx))))))
	require.NoError(t, sq.Backward(nil))
	require.NoError(t, emb.Backward(nil))

	require.NoError(t, p.ClampGradient(-1, 1))
	assert.Equal(t, []float64{-1, 0.2, 1}, p.Gradient().Data())

	require.NoError(t, table.ClampGradient(-1, 1))
	assert.Equal(t, []float64{1, 0}, table.DenseGradient().Data())

	assert.Error(t, p.ClampGradient(1, -1))
}

func TestStats(t *testing.T) {
	g := newGraph(t, autodiff.Strict)
	p := must.M1(g.Parameter("p", tensor.Zeros(tensor.Shape{128})))
	loss := must.M1(autodiff.Sum(p))
	require.NoError(t, loss.Backward(nil))

	stats := g.Stats()
	assert.Equal(t, 2, stats.Nodes)
	assert.Equal(t, 1, stats.Parameters)
	assert.Equal(t, 1024, stats.ParameterBytes)
	assert.Equal(t, 1024, stats.GradientBytes)
	assert.Equal(t, int64(1), stats.Evaluations)
	assert.Contains(t, stats.String(), "1.0 kB values")
}
