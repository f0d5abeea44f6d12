package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = 1e-12

// one dual per lane: a is seeded in lane 0, b in lane 1
func seededPair(a, b float64) (Dual, Dual) {
	return Seeded(a, 0), Seeded(b, 1)
}

func TestDualArithmeticRules(t *testing.T) {
	a, b := seededPair(3, 5)

	sum := a.Add(b)
	assert.Equal(t, 8.0, sum.Val)
	assert.Equal(t, [LaneCount]float64{1, 1}, sum.Grad)

	diff := a.Sub(b)
	assert.Equal(t, -2.0, diff.Val)
	assert.Equal(t, [LaneCount]float64{1, -1}, diff.Grad)

	// product rule: d(ab) = b*da + a*db
	prod := a.Mul(b)
	assert.Equal(t, 15.0, prod.Val)
	assert.Equal(t, [LaneCount]float64{5, 3}, prod.Grad)

	// quotient rule: d(a/b) = da/b - a*db/b^2
	quot := a.Div(b)
	assert.InDelta(t, 0.6, quot.Val, tol)
	assert.InDelta(t, 1.0/5, quot.Grad[0], tol)
	assert.InDelta(t, -3.0/25, quot.Grad[1], tol)
}

func TestDualZeroDerivativePropagation(t *testing.T) {
	// constants carry zero lanes and must keep them zero through arithmetic
	c := Const(4)
	x := Seeded(2, 0)

	r := c.Mul(c).Add(c)
	assert.Equal(t, [LaneCount]float64{}, r.Grad)

	r = x.Mul(c)
	assert.Equal(t, [LaneCount]float64{4}, r.Grad)
}

func TestDualElementaryChainRules(t *testing.T) {
	x := 0.7
	cases := []struct {
		name string
		fn   func(Dual) Dual
		want float64 // f'(x)
	}{
		{"sin", Dual.Sin, math.Cos(x)},
		{"cos", Dual.Cos, -math.Sin(x)},
		{"tan", Dual.Tan, 1 / (math.Cos(x) * math.Cos(x))},
		{"exp", Dual.Exp, math.Exp(x)},
		{"log", Dual.Log, 1 / x},
		{"log1p", Dual.Log1p, 1 / (1 + x)},
		{"logabs", Dual.LogAbs, 1 / x},
		{"sqrt", Dual.Sqrt, 0.5 / math.Sqrt(x)},
		{"sqrtabs", Dual.SqrtAbs, 0.5 / math.Sqrt(x)},
		{"cbrt", Dual.Cbrt, 1 / (3 * math.Cbrt(x) * math.Cbrt(x))},
		{"square", Dual.Square, 2 * x},
		{"abs", Dual.Abs, 1},
		{"asin", Dual.Asin, 1 / math.Sqrt(1-x*x)},
		{"acos", Dual.Acos, -1 / math.Sqrt(1-x*x)},
		{"atan", Dual.Atan, 1 / (1 + x*x)},
		{"sinh", Dual.Sinh, math.Cosh(x)},
		{"cosh", Dual.Cosh, math.Sinh(x)},
		{"tanh", Dual.Tanh, 1 - math.Tanh(x)*math.Tanh(x)},
		{"floor", Dual.Floor, 0},
		{"ceil", Dual.Ceil, 0},
		{"inv", Dual.Inv, -1 / (x * x)},
		{"neg", Dual.Neg, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := tc.fn(Seeded(x, 2))
			assert.InDelta(t, tc.want, r.Grad[2], tol)
			// unseeded lanes stay zero
			assert.Zero(t, r.Grad[0])
		})
	}
}

func TestDualNegativeBranches(t *testing.T) {
	x := Seeded(-0.7, 0)

	abs := x.Abs()
	assert.InDelta(t, 0.7, abs.Val, tol)
	assert.InDelta(t, -1, abs.Grad[0], tol)

	la := x.LogAbs()
	assert.InDelta(t, math.Log(0.7), la.Val, tol)
	assert.InDelta(t, 1/-0.7, la.Grad[0], tol)

	sa := x.SqrtAbs()
	assert.InDelta(t, math.Sqrt(0.7), sa.Val, tol)
	assert.InDelta(t, -0.5/math.Sqrt(0.7), sa.Grad[0], tol)
}

func TestDualPow(t *testing.T) {
	a, b := seededPair(2, 3)
	r := a.Pow(b)
	assert.InDelta(t, 8, r.Val, tol)
	// d(a^b)/da = b*a^(b-1), d(a^b)/db = a^b * ln a
	assert.InDelta(t, 12, r.Grad[0], tol)
	assert.InDelta(t, 8*math.Log(2), r.Grad[1], tol)
}

func TestDualAq(t *testing.T) {
	a, b := seededPair(3, 4)
	r := a.Aq(b)
	s := math.Sqrt(17.0)
	assert.InDelta(t, 3/s, r.Val, tol)
	assert.InDelta(t, 1/s, r.Grad[0], tol)
	assert.InDelta(t, -3*4/(s*s*s), r.Grad[1], tol)

	// protected against zero denominators by construction
	z := a.Aq(Const(0))
	assert.InDelta(t, 3, z.Val, tol)
}

func TestDualMinMaxBranchSelection(t *testing.T) {
	a, b := seededPair(1, 2)

	lo := a.Min(b)
	assert.Equal(t, 1.0, lo.Val)
	assert.Equal(t, [LaneCount]float64{1, 0}, lo.Grad)

	hi := a.Max(b)
	assert.Equal(t, 2.0, hi.Val)
	assert.Equal(t, [LaneCount]float64{0, 1}, hi.Grad)
}

// The scalar and dual instantiations must pick the same branch when a NaN
// is involved: the comparison fails, so the first argument wins.
func TestMinMaxNaNAgreement(t *testing.T) {
	nan := math.NaN()

	cases := []struct {
		name string
		a, b float64
	}{
		{"nan first", nan, 2},
		{"nan second", 2, nan},
		{"both nan", nan, nan},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sMin := Scalar(tc.a).Min(Scalar(tc.b)).Float()
			sMax := Scalar(tc.a).Max(Scalar(tc.b)).Float()
			dMin := Const(tc.a).Min(Const(tc.b)).Val
			dMax := Const(tc.a).Max(Const(tc.b)).Val

			assert.Equal(t, math.Float64bits(tc.a), math.Float64bits(sMin))
			assert.Equal(t, math.Float64bits(sMin), math.Float64bits(dMin))
			assert.Equal(t, math.Float64bits(tc.a), math.Float64bits(sMax))
			assert.Equal(t, math.Float64bits(sMax), math.Float64bits(dMax))
		})
	}
}
