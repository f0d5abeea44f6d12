package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildfunctions/treeval/pkg/dataset"
	"github.com/wildfunctions/treeval/pkg/tree"
)

func testDataset(t *testing.T, rows int) *dataset.Dataset {
	t.Helper()
	x := make([]float64, rows)
	y := make([]float64, rows)
	for i := range x {
		x[i] = float64(i + 1)
		y[i] = math.Sin(float64(i)) + 2
	}
	d, err := dataset.New(map[string][]float64{"x": x, "y": y})
	require.NoError(t, err)
	return d
}

func TestEvaluateConcreteScenario(t *testing.T) {
	// Add(Mul(Const(2), Var(x)), Const(3)) over x = [1,2,3]
	d := testDataset(t, 3)
	tr, err := tree.Parse("x 2 * 3 +")
	require.NoError(t, err)

	out := Evaluate(tr, d, dataset.NewRange(0, 3), nil)
	assert.Equal(t, []float64{5, 7, 9}, out)
}

func TestEvaluateOutputLengthAndPurity(t *testing.T) {
	d := testDataset(t, 200)
	tr, err := tree.Parse("x sin x 0.5 * + exp y /")
	require.NoError(t, err)

	rng := dataset.NewRange(10, 157)
	first := Evaluate(tr, d, rng, nil)
	second := Evaluate(tr, d, rng, nil)

	assert.Len(t, first, rng.Size())
	// bit-identical on repeated calls: no hidden mutable state
	assert.Equal(t, first, second)
}

func TestEvaluateLeafOnlyTrees(t *testing.T) {
	d := testDataset(t, 4)
	rng := d.FullRange()

	konst := tree.New(tree.NewConstant(7))
	assert.Equal(t, []float64{7, 7, 7, 7}, Evaluate(konst, d, rng, nil))

	weighted := tree.New(tree.NewVariable(tree.VarHash("x"), 2.5))
	assert.Equal(t, []float64{2.5, 5, 7.5, 10}, Evaluate(weighted, d, rng, nil))
}

func TestWeightedVariableSemantics(t *testing.T) {
	d := testDataset(t, 100)
	rng := d.FullRange()
	c := 3.25
	tr := tree.New(tree.NewVariable(tree.VarHash("x"), c))

	out := Evaluate(tr, d, rng, nil)
	xs := d.GetValues(tree.VarHash("x"))
	for i := range out {
		assert.Equal(t, c*xs[i], out[i], "row %d", i)
	}
}

// naryNode returns an arithmetic node widened to the given arity.
func naryNode(typ tree.NodeType, arity uint16) tree.Node {
	n := tree.NewNode(typ)
	n.Arity = arity
	return n
}

func TestNaryFoldMatchesNestedBinary(t *testing.T) {
	d := testDataset(t, 50)
	rng := d.FullRange()
	x := tree.NewVariable(tree.VarHash("x"), 1)

	cases := []struct {
		name   string
		folded *tree.Tree
		nested *tree.Tree
	}{
		{
			// x + 1 + 2 + 5, arguments first-nearest-parent
			"add4",
			tree.New(tree.NewConstant(5), tree.NewConstant(2), tree.NewConstant(1), x, naryNode(tree.Add, 4)),
			tree.New(tree.NewConstant(5), tree.NewConstant(2), tree.NewConstant(1), x,
				tree.NewNode(tree.Add), tree.NewNode(tree.Add), tree.NewNode(tree.Add)),
		},
		{
			"mul3",
			tree.New(tree.NewConstant(3), tree.NewConstant(2), x, naryNode(tree.Mul, 3)),
			tree.New(tree.NewConstant(3), tree.NewConstant(2), x,
				tree.NewNode(tree.Mul), tree.NewNode(tree.Mul)),
		},
		{
			"sub3",
			tree.New(tree.NewConstant(3), tree.NewConstant(2), x, naryNode(tree.Sub, 3)),
			tree.New(tree.NewConstant(3), tree.NewConstant(2), x,
				tree.NewNode(tree.Sub), tree.NewNode(tree.Sub)),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t,
				Evaluate(tc.nested, d, rng, nil),
				Evaluate(tc.folded, d, rng, nil))
		})
	}
}

func TestNaryFoldBeyondGroupWidth(t *testing.T) {
	// seven children force a continued fold: 5 in the first kernel call,
	// 2 through the accumulator
	d := testDataset(t, 30)
	rng := d.FullRange()
	x := tree.NewVariable(tree.VarHash("x"), 1)

	nodes := []tree.Node{
		tree.NewConstant(7), tree.NewConstant(6), tree.NewConstant(5),
		tree.NewConstant(4), tree.NewConstant(3), tree.NewConstant(2),
		x, naryNode(tree.Add, 7),
	}
	folded := tree.New(nodes...)

	xs := d.GetValues(tree.VarHash("x"))
	out := Evaluate(folded, d, rng, nil)
	for i := range out {
		assert.Equal(t, xs[i]+2+3+4+5+6+7, out[i], "row %d", i)
	}
}

func TestBatchSizeInvariance(t *testing.T) {
	d := testDataset(t, 150)
	tr, err := tree.Parse("x sqrt x 3 / cos *")
	require.NoError(t, err)
	rng := dataset.NewRange(0, 150)

	in := NewInterpreter[Scalar](nil)
	whole := in.Evaluate(tr, d, rng, nil)

	for _, batch := range []int{1, 7, 64, 150, 1000} {
		chunked := in.EvaluateBatched(tr, d, rng, batch, nil)
		assert.Equal(t, whole, chunked, "batch size %d", batch)
	}
}

func TestParameterOverride(t *testing.T) {
	d := testDataset(t, 3)
	tr, err := tree.Parse("x 2? * 3? +")
	require.NoError(t, err)
	rng := d.FullRange()

	// stored coefficients: tree order puts the additive constant first
	require.Equal(t, []float64{3, 2}, tr.Coefficients())
	assert.Equal(t, []float64{5, 7, 9}, Evaluate(tr, d, rng, nil))

	// override without touching the tree: 5x + 10
	out := Evaluate(tr, d, rng, []float64{10, 5})
	assert.Equal(t, []float64{15, 20, 25}, out)

	// the tree's own values are untouched
	assert.Equal(t, []float64{3, 2}, tr.Coefficients())
}

func TestDisabledFlagDoesNotChangeEvaluation(t *testing.T) {
	d := testDataset(t, 10)
	tr, err := tree.Parse("x 2 * 3 +")
	require.NoError(t, err)
	want := Evaluate(tr, d, d.FullRange(), nil)

	tr.Nodes()[0].IsEnabled = false
	assert.Equal(t, want, Evaluate(tr, d, d.FullRange(), nil))
}

func TestDynamicKernelRegistration(t *testing.T) {
	d := testDataset(t, 5)
	rng := d.FullRange()
	h := tree.VarHash("twice")

	tbl := NewTable[Scalar]()
	tbl.Register(h, func(buf [][]Scalar, nodes []tree.Node, parent, rows int) {
		dst, src := buf[parent], buf[parent-1]
		for r := 0; r < rows; r++ {
			dst[r] = 2 * src[r]
		}
	})
	in := NewInterpreter(tbl)

	tr := tree.New(tree.NewVariable(tree.VarHash("x"), 1), tree.NewDynamic(h, 1))
	out := in.Evaluate(tr, d, rng, nil)
	for i, x := range d.GetValues(tree.VarHash("x")) {
		assert.Equal(t, Scalar(2*x), out[i])
	}
}

func TestUnregisteredDynamicIsSkipped(t *testing.T) {
	d := testDataset(t, 5)
	tr := tree.New(tree.NewVariable(tree.VarHash("x"), 1), tree.NewDynamic(tree.VarHash("mystery"), 1))

	// not an error: the node is simply not evaluated
	out := Evaluate(tr, d, d.FullRange(), nil)
	assert.Len(t, out, 5)
}

func TestEvaluateTrees(t *testing.T) {
	d := testDataset(t, 64)
	rng := d.FullRange()

	exprs := []string{"x 2 * 3 +", "x sin", "x y +", "x square y /"}
	trees := make([]*tree.Tree, len(exprs))
	for i, e := range exprs {
		tr, err := tree.Parse(e)
		require.NoError(t, err)
		trees[i] = tr
	}

	got, err := EvaluateTrees(trees, d, rng, 4)
	require.NoError(t, err)
	require.Len(t, got, len(trees))
	for i, tr := range trees {
		assert.Equal(t, Evaluate(tr, d, rng, nil), got[i], "tree %d", i)
	}
}

func TestEvaluateTreesIsolatesFailures(t *testing.T) {
	d := testDataset(t, 16)
	rng := d.FullRange()

	good, err := tree.Parse("x 2 *")
	require.NoError(t, err)
	// references a variable the dataset does not hold: panics inside the
	// evaluator, which the fan-out must contain
	bad, err := tree.Parse("ghost 1 +")
	require.NoError(t, err)

	got, err := EvaluateTrees([]*tree.Tree{good, bad, good}, d, rng, 2)
	assert.Error(t, err)
	assert.Equal(t, Evaluate(good, d, rng, nil), got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, Evaluate(good, d, rng, nil), got[2])
}
