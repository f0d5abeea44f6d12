package eval

import "math"

// LaneCount is the fixed width of a dual number's derivative vector. Each
// forward pass differentiates with respect to at most LaneCount seeded
// coefficients; the Jacobian layer runs ceil(M/LaneCount) passes for M
// coefficients.
const LaneCount = 4

// Dual is the forward-mode AD scalar: a primal value paired with LaneCount
// directional derivative lanes. Every operation propagates the lanes by the
// exact differentiation rule, so derivatives are exact to floating-point
// precision, not finite-difference approximations.
type Dual struct {
	Val  float64
	Grad [LaneCount]float64
}

// Const returns a dual with value x and zero derivative.
func Const(x float64) Dual { return Dual{Val: x} }

// Seeded returns a dual with value x and lane k set to 1.
func Seeded(x float64, k int) Dual {
	d := Dual{Val: x}
	d.Grad[k] = 1
	return d
}

// chain applies the scalar chain rule: result value v, lanes dv * a.Grad.
func (a Dual) chain(v, dv float64) Dual {
	r := Dual{Val: v}
	for i := range r.Grad {
		r.Grad[i] = dv * a.Grad[i]
	}
	return r
}

func (a Dual) Add(b Dual) Dual {
	r := Dual{Val: a.Val + b.Val}
	for i := range r.Grad {
		r.Grad[i] = a.Grad[i] + b.Grad[i]
	}
	return r
}

func (a Dual) Sub(b Dual) Dual {
	r := Dual{Val: a.Val - b.Val}
	for i := range r.Grad {
		r.Grad[i] = a.Grad[i] - b.Grad[i]
	}
	return r
}

func (a Dual) Mul(b Dual) Dual {
	r := Dual{Val: a.Val * b.Val}
	for i := range r.Grad {
		r.Grad[i] = a.Val*b.Grad[i] + b.Val*a.Grad[i]
	}
	return r
}

func (a Dual) Div(b Dual) Dual {
	inv := 1 / b.Val
	r := Dual{Val: a.Val * inv}
	for i := range r.Grad {
		r.Grad[i] = (a.Grad[i] - r.Val*b.Grad[i]) * inv
	}
	return r
}

func (a Dual) Neg() Dual {
	r := Dual{Val: -a.Val}
	for i := range r.Grad {
		r.Grad[i] = -a.Grad[i]
	}
	return r
}

func (a Dual) Inv() Dual {
	v := 1 / a.Val
	return a.chain(v, -v*v)
}

func (a Dual) MulFloat(x float64) Dual {
	r := Dual{Val: a.Val * x}
	for i := range r.Grad {
		r.Grad[i] = a.Grad[i] * x
	}
	return r
}

func (a Dual) FromFloat(x float64) Dual { return Dual{Val: x} }
func (a Dual) Float() float64           { return a.Val }

// Min and Max select the winning branch and carry its derivative; at a tie
// the first argument wins, matching the scalar kernel.
func (a Dual) Min(b Dual) Dual {
	if b.Val < a.Val {
		return b
	}
	return a
}

func (a Dual) Max(b Dual) Dual {
	if b.Val > a.Val {
		return b
	}
	return a
}

func (a Dual) Pow(b Dual) Dual {
	v := math.Pow(a.Val, b.Val)
	// d(a^b) = a^b * (b/a * da + ln(a) * db)
	da := v * b.Val / a.Val
	db := v * math.Log(a.Val)
	r := Dual{Val: v}
	for i := range r.Grad {
		r.Grad[i] = da*a.Grad[i] + db*b.Grad[i]
	}
	return r
}

func (a Dual) Aq(b Dual) Dual {
	// a / sqrt(1+b^2); d = da/s - a*b*db/s^3 with s = sqrt(1+b^2)
	s := math.Sqrt(1 + b.Val*b.Val)
	invS := 1 / s
	v := a.Val * invS
	dbCoef := -v * b.Val * invS * invS
	r := Dual{Val: v}
	for i := range r.Grad {
		r.Grad[i] = invS*a.Grad[i] + dbCoef*b.Grad[i]
	}
	return r
}

func (a Dual) Abs() Dual {
	if a.Val < 0 {
		return a.Neg()
	}
	return a
}

func (a Dual) Acos() Dual {
	return a.chain(math.Acos(a.Val), -1/math.Sqrt(1-a.Val*a.Val))
}

func (a Dual) Asin() Dual {
	return a.chain(math.Asin(a.Val), 1/math.Sqrt(1-a.Val*a.Val))
}

func (a Dual) Atan() Dual {
	return a.chain(math.Atan(a.Val), 1/(1+a.Val*a.Val))
}

func (a Dual) Cbrt() Dual {
	v := math.Cbrt(a.Val)
	return a.chain(v, 1/(3*v*v))
}

// Ceil and Floor are step functions: zero derivative almost everywhere.
func (a Dual) Ceil() Dual  { return Dual{Val: math.Ceil(a.Val)} }
func (a Dual) Floor() Dual { return Dual{Val: math.Floor(a.Val)} }

func (a Dual) Cos() Dual  { return a.chain(math.Cos(a.Val), -math.Sin(a.Val)) }
func (a Dual) Cosh() Dual { return a.chain(math.Cosh(a.Val), math.Sinh(a.Val)) }

func (a Dual) Exp() Dual {
	v := math.Exp(a.Val)
	return a.chain(v, v)
}

func (a Dual) Log() Dual { return a.chain(math.Log(a.Val), 1/a.Val) }

func (a Dual) LogAbs() Dual {
	// d(ln|a|) = da/a for either sign
	return a.chain(math.Log(math.Abs(a.Val)), 1/a.Val)
}

func (a Dual) Log1p() Dual { return a.chain(math.Log1p(a.Val), 1/(1+a.Val)) }

func (a Dual) Sin() Dual  { return a.chain(math.Sin(a.Val), math.Cos(a.Val)) }
func (a Dual) Sinh() Dual { return a.chain(math.Sinh(a.Val), math.Cosh(a.Val)) }

func (a Dual) Sqrt() Dual {
	v := math.Sqrt(a.Val)
	return a.chain(v, 0.5/v)
}

func (a Dual) SqrtAbs() Dual {
	v := math.Sqrt(math.Abs(a.Val))
	dv := 0.5 / v
	if a.Val < 0 {
		dv = -dv
	}
	return a.chain(v, dv)
}

func (a Dual) Tan() Dual {
	c := math.Cos(a.Val)
	return a.chain(math.Tan(a.Val), 1/(c*c))
}

func (a Dual) Tanh() Dual {
	v := math.Tanh(a.Val)
	return a.chain(v, 1-v*v)
}

func (a Dual) Square() Dual { return a.chain(a.Val*a.Val, 2*a.Val) }
