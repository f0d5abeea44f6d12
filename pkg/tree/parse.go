package tree

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// VarHash returns the identity hash for a variable name. Datasets key their
// columns by the same function so that parsed trees bind without a lookup
// table.
func VarHash(name string) uint64 { return xxhash.Sum64String(name) }

var opTokens = map[string]NodeType{
	"+": Add, "add": Add,
	"-": Sub, "sub": Sub,
	"*": Mul, "mul": Mul,
	"/": Div, "div": Div,
	"aq": Aq,
	"min": Fmin, "max": Fmax,
	"^": Pow, "pow": Pow,
	"abs": Abs, "acos": Acos, "asin": Asin, "atan": Atan,
	"cbrt": Cbrt, "ceil": Ceil, "cos": Cos, "cosh": Cosh,
	"exp": Exp, "floor": Floor, "log": Log, "logabs": LogAbs,
	"log1p": Log1p, "sin": Sin, "sinh": Sinh, "sqrt": Sqrt,
	"sqrtabs": SqrtAbs, "tan": Tan, "tanh": Tanh, "square": Square,
}

// Parse builds a tree from a whitespace-separated postfix expression, e.g.
// "x 2 * 3 +" for 2*x + 3. Numbers become constants, known operator names
// become operators, anything else becomes a variable leaf with weight 1.
// A trailing '?' on a number marks the constant as an optimizable
// coefficient: "x 2? *".
func Parse(input string) (*Tree, error) {
	var stack [][]Node
	for _, tok := range strings.Fields(input) {
		if t, ok := opTokens[tok]; ok {
			n := NewNode(t)
			if len(stack) < int(n.Arity) {
				return nil, errors.Errorf("parse %q: operator %q wants %d operands, have %d", input, tok, n.Arity, len(stack))
			}
			// pop the operands and lay them out with the first argument
			// closest to the parent
			args := stack[len(stack)-int(n.Arity):]
			stack = stack[:len(stack)-int(n.Arity)]
			var sub []Node
			for k := len(args) - 1; k >= 0; k-- {
				sub = append(sub, args[k]...)
			}
			sub = append(sub, n)
			stack = append(stack, sub)
			continue
		}
		lit := tok
		optimize := false
		if strings.HasSuffix(lit, "?") {
			lit = strings.TrimSuffix(lit, "?")
			optimize = true
		}
		if v, err := strconv.ParseFloat(lit, 64); err == nil {
			n := NewConstant(v)
			n.Optimize = optimize
			stack = append(stack, []Node{n})
			continue
		}
		if optimize {
			return nil, errors.Errorf("parse %q: '?' marker on non-numeric token %q", input, tok)
		}
		stack = append(stack, []Node{NewVariable(VarHash(tok), 1)})
	}
	if len(stack) != 1 {
		return nil, errors.Errorf("parse %q: %d values left on stack, want 1", input, len(stack))
	}
	return New(stack[0]...), nil
}

// Format renders the tree as an infix string with explicit parentheses.
// Variable names are recovered through the resolve function; a nil resolver
// prints the raw hash.
func (t *Tree) Format(resolve func(hash uint64) string) string {
	var sb strings.Builder
	t.format(&sb, len(t.nodes)-1, resolve)
	return sb.String()
}

var infixSymbols = map[NodeType]string{Add: " + ", Sub: " - ", Mul: " * ", Div: " / ", Pow: " ^ "}

func (t *Tree) format(sb *strings.Builder, i int, resolve func(uint64) string) {
	n := t.nodes[i]
	switch {
	case n.IsConstant():
		sb.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
	case n.IsVariable():
		name := ""
		if resolve != nil {
			name = resolve(n.HashValue)
		}
		if name == "" {
			name = "v" + strconv.FormatUint(n.HashValue, 16)
		}
		if n.Value != 1 {
			sb.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
			sb.WriteByte('*')
		}
		sb.WriteString(name)
	case n.Type.Category() == Arithmetic:
		sym := infixSymbols[n.Type]
		if sym == "" {
			// functional form for aq/min/max
			sb.WriteString(n.Type.String())
			sym = ", "
		}
		sb.WriteByte('(')
		children := t.Children(i)
		for k, c := range children {
			if k > 0 {
				sb.WriteString(sym)
			}
			t.format(sb, c, resolve)
		}
		sb.WriteByte(')')
	default:
		sb.WriteString(n.Type.String())
		sb.WriteByte('(')
		t.format(sb, i-1, resolve)
		sb.WriteByte(')')
	}
}
