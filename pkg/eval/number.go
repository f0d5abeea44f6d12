// Package eval implements batched evaluation of postfix expression trees
// and exact forward-mode differentiation of their tunable coefficients.
//
// The same interpreter body runs for plain scalars and for dual numbers;
// the Number constraint is the "evaluable scalar" capability both satisfy.
package eval

import "math"

// Number is the capability a numeric type needs to flow through the
// interpreter: field arithmetic plus every elementary function in the
// operator set. Implementations must follow the standard differentiation
// rules where the type carries derivative information.
type Number[T any] interface {
	Add(T) T
	Sub(T) T
	Mul(T) T
	Div(T) T
	Neg() T
	Inv() T
	// MulFloat scales by a plain float64 (weighted variable loads).
	MulFloat(float64) T
	// FromFloat lifts a float64 into T; the receiver only supplies the type.
	FromFloat(float64) T
	// Float returns the primal value.
	Float() float64

	Min(T) T
	Max(T) T
	Pow(T) T
	// Aq is the analytic quotient a / sqrt(1 + b*b), a division protected
	// against zero denominators.
	Aq(T) T

	Abs() T
	Acos() T
	Asin() T
	Atan() T
	Cbrt() T
	Ceil() T
	Cos() T
	Cosh() T
	Exp() T
	Floor() T
	Log() T
	LogAbs() T
	Log1p() T
	Sin() T
	Sinh() T
	Sqrt() T
	SqrtAbs() T
	Tan() T
	Tanh() T
	Square() T
}

// Scalar is the plain float64 instantiation. All operations follow IEEE-754
// semantics: x/0 is ±Inf, 0/0 is NaN, Log of a negative number is NaN. The
// protected variants (Aq, LogAbs, SqrtAbs) are separate operators, not a
// silent fallback.
type Scalar float64

func (a Scalar) Add(b Scalar) Scalar        { return a + b }
func (a Scalar) Sub(b Scalar) Scalar        { return a - b }
func (a Scalar) Mul(b Scalar) Scalar        { return a * b }
func (a Scalar) Div(b Scalar) Scalar        { return a / b }
func (a Scalar) Neg() Scalar                { return -a }
func (a Scalar) Inv() Scalar                { return 1 / a }
func (a Scalar) MulFloat(x float64) Scalar  { return a * Scalar(x) }
func (a Scalar) FromFloat(x float64) Scalar { return Scalar(x) }
func (a Scalar) Float() float64             { return float64(a) }

// Min and Max select by comparison; at a tie or against NaN the first
// argument wins, so the scalar and dual instantiations agree.
func (a Scalar) Min(b Scalar) Scalar {
	if b < a {
		return b
	}
	return a
}

func (a Scalar) Max(b Scalar) Scalar {
	if b > a {
		return b
	}
	return a
}
func (a Scalar) Pow(b Scalar) Scalar { return Scalar(math.Pow(float64(a), float64(b))) }
func (a Scalar) Aq(b Scalar) Scalar  { return a / Scalar(math.Sqrt(1+float64(b)*float64(b))) }

func (a Scalar) Abs() Scalar     { return Scalar(math.Abs(float64(a))) }
func (a Scalar) Acos() Scalar    { return Scalar(math.Acos(float64(a))) }
func (a Scalar) Asin() Scalar    { return Scalar(math.Asin(float64(a))) }
func (a Scalar) Atan() Scalar    { return Scalar(math.Atan(float64(a))) }
func (a Scalar) Cbrt() Scalar    { return Scalar(math.Cbrt(float64(a))) }
func (a Scalar) Ceil() Scalar    { return Scalar(math.Ceil(float64(a))) }
func (a Scalar) Cos() Scalar     { return Scalar(math.Cos(float64(a))) }
func (a Scalar) Cosh() Scalar    { return Scalar(math.Cosh(float64(a))) }
func (a Scalar) Exp() Scalar     { return Scalar(math.Exp(float64(a))) }
func (a Scalar) Floor() Scalar   { return Scalar(math.Floor(float64(a))) }
func (a Scalar) Log() Scalar     { return Scalar(math.Log(float64(a))) }
func (a Scalar) LogAbs() Scalar  { return Scalar(math.Log(math.Abs(float64(a)))) }
func (a Scalar) Log1p() Scalar   { return Scalar(math.Log1p(float64(a))) }
func (a Scalar) Sin() Scalar     { return Scalar(math.Sin(float64(a))) }
func (a Scalar) Sinh() Scalar    { return Scalar(math.Sinh(float64(a))) }
func (a Scalar) Sqrt() Scalar    { return Scalar(math.Sqrt(float64(a))) }
func (a Scalar) SqrtAbs() Scalar { return Scalar(math.Sqrt(math.Abs(float64(a)))) }
func (a Scalar) Tan() Scalar     { return Scalar(math.Tan(float64(a))) }
func (a Scalar) Tanh() Scalar    { return Scalar(math.Tanh(float64(a))) }
func (a Scalar) Square() Scalar  { return a * a }

// AsFloats copies a Scalar slice into a fresh float64 slice.
func AsFloats(xs []Scalar) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

// AsScalars copies a float64 slice into a fresh Scalar slice.
func AsScalars(xs []float64) []Scalar {
	out := make([]Scalar, len(xs))
	for i, x := range xs {
		out[i] = Scalar(x)
	}
	return out
}
