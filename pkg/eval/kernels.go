package eval

import "github.com/wildfunctions/treeval/pkg/tree"

// BatchSize is the fixed column width rows are streamed through. The final
// batch of a range may be short; kernels receive the live row count.
const BatchSize = 64

// maxFoldArgs bounds how many sibling columns a single kernel invocation
// consumes; wider operators are folded through the accumulator in several
// invocations.
const maxFoldArgs = 5

// A Callable evaluates one node over the current batch: it locates the
// node's children columns via the postfix back-stepping contract and writes
// the elementwise result into buf[parent][:rows]. Kernels are pure apart
// from the destination write and safe under any aliasing the tree layout
// can produce (a unary destination may alias its source).
type Callable[T Number[T]] func(buf [][]T, nodes []tree.Node, parent, rows int)

// Division policy: plain IEEE-754 throughout — x/0 yields ±Inf, 0/0 yields
// NaN, and domain errors (Log of a negative, Sqrt of a negative) yield NaN.
// Results are deterministic floating-point values, never errors. Protected
// alternatives are their own operators: Aq (analytic quotient), LogAbs,
// SqrtAbs.

// foldKernel builds the n-ary callable for an arithmetic operator from its
// two forms: the prefix applied to a lone first argument (identity for add
// and mul, negation for sub, inversion for div) and the left-fold combiner.
func foldKernel[T Number[T]](first func(T) T, combine func(T, T) T) Callable[T] {
	return func(buf [][]T, nodes []tree.Node, parent, rows int) {
		dst := buf[parent]
		arity := int(nodes[parent].Arity)
		i := parent - 1
		continued := false
		for arity > 0 {
			take := arity
			if take > maxFoldArgs {
				take = maxFoldArgs
			}
			var args [maxFoldArgs][]T
			for k := 0; k < take; k++ {
				args[k] = buf[i]
				i -= int(nodes[i].Length)
			}
			if !continued {
				a0 := args[0]
				if take == 1 {
					for r := 0; r < rows; r++ {
						dst[r] = first(a0[r])
					}
				} else {
					for r := 0; r < rows; r++ {
						dst[r] = combine(a0[r], args[1][r])
					}
					for k := 2; k < take; k++ {
						a := args[k]
						for r := 0; r < rows; r++ {
							dst[r] = combine(dst[r], a[r])
						}
					}
				}
			} else {
				for k := 0; k < take; k++ {
					a := args[k]
					for r := 0; r < rows; r++ {
						dst[r] = combine(dst[r], a[r])
					}
				}
			}
			arity -= take
			continued = true
		}
	}
}

// unaryKernel builds the callable for an elementary function. The source is
// always the column at parent-1; writing dst in a forward loop keeps the
// kernel in-place safe.
func unaryKernel[T Number[T]](f func(T) T) Callable[T] {
	return func(buf [][]T, nodes []tree.Node, parent, rows int) {
		dst, src := buf[parent], buf[parent-1]
		for r := 0; r < rows; r++ {
			dst[r] = f(src[r])
		}
	}
}

// builtinKernel returns the kernel for a built-in operator type, or nil for
// the leaf kinds (handled directly by the interpreter, never dispatched).
func builtinKernel[T Number[T]](t tree.NodeType) Callable[T] {
	switch t {
	case tree.Add:
		return foldKernel(func(a T) T { return a }, func(a, b T) T { return a.Add(b) })
	case tree.Sub:
		return foldKernel(func(a T) T { return a.Neg() }, func(a, b T) T { return a.Sub(b) })
	case tree.Mul:
		return foldKernel(func(a T) T { return a }, func(a, b T) T { return a.Mul(b) })
	case tree.Div:
		return foldKernel(func(a T) T { return a.Inv() }, func(a, b T) T { return a.Div(b) })
	case tree.Aq:
		return foldKernel(func(a T) T { return a }, func(a, b T) T { return a.Aq(b) })
	case tree.Fmin:
		return foldKernel(func(a T) T { return a }, func(a, b T) T { return a.Min(b) })
	case tree.Fmax:
		return foldKernel(func(a T) T { return a }, func(a, b T) T { return a.Max(b) })
	case tree.Pow:
		return foldKernel(func(a T) T { return a }, func(a, b T) T { return a.Pow(b) })
	case tree.Abs:
		return unaryKernel(func(a T) T { return a.Abs() })
	case tree.Acos:
		return unaryKernel(func(a T) T { return a.Acos() })
	case tree.Asin:
		return unaryKernel(func(a T) T { return a.Asin() })
	case tree.Atan:
		return unaryKernel(func(a T) T { return a.Atan() })
	case tree.Cbrt:
		return unaryKernel(func(a T) T { return a.Cbrt() })
	case tree.Ceil:
		return unaryKernel(func(a T) T { return a.Ceil() })
	case tree.Cos:
		return unaryKernel(func(a T) T { return a.Cos() })
	case tree.Cosh:
		return unaryKernel(func(a T) T { return a.Cosh() })
	case tree.Exp:
		return unaryKernel(func(a T) T { return a.Exp() })
	case tree.Floor:
		return unaryKernel(func(a T) T { return a.Floor() })
	case tree.Log:
		return unaryKernel(func(a T) T { return a.Log() })
	case tree.LogAbs:
		return unaryKernel(func(a T) T { return a.LogAbs() })
	case tree.Log1p:
		return unaryKernel(func(a T) T { return a.Log1p() })
	case tree.Sin:
		return unaryKernel(func(a T) T { return a.Sin() })
	case tree.Sinh:
		return unaryKernel(func(a T) T { return a.Sinh() })
	case tree.Sqrt:
		return unaryKernel(func(a T) T { return a.Sqrt() })
	case tree.SqrtAbs:
		return unaryKernel(func(a T) T { return a.SqrtAbs() })
	case tree.Tan:
		return unaryKernel(func(a T) T { return a.Tan() })
	case tree.Tanh:
		return unaryKernel(func(a T) T { return a.Tanh() })
	case tree.Square:
		return unaryKernel(func(a T) T { return a.Square() })
	}
	return nil
}
