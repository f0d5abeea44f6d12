package tree

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// NodeType identifies the operator or operand kind of a node.
type NodeType uint8

const (
	// Arithmetic operators. Declared arity 2, n-ary foldable.
	Add NodeType = iota
	Sub
	Mul
	Div
	Aq // analytic quotient: a / sqrt(1 + b*b), the protected divide
	Fmin
	Fmax
	Pow

	// Unary elementary functions.
	Abs
	Acos
	Asin
	Atan
	Cbrt
	Ceil
	Cos
	Cosh
	Exp
	Floor
	Log
	LogAbs
	Log1p
	Sin
	Sinh
	Sqrt
	SqrtAbs
	Tan
	Tanh
	Square

	// Leaves.
	Dynamic
	Constant
	Variable

	NumTypes
)

// Category groups node types by structural role.
type Category uint8

const (
	Arithmetic Category = iota
	UnaryFunc
	Leaf
)

// typeDesc is the static descriptor for a node type. Arity and category are
// fixed at construction and never inferred from the enum ordering.
type typeDesc struct {
	name     string
	arity    uint16
	category Category
}

var typeDescs = [NumTypes]typeDesc{
	Add:      {"add", 2, Arithmetic},
	Sub:      {"sub", 2, Arithmetic},
	Mul:      {"mul", 2, Arithmetic},
	Div:      {"div", 2, Arithmetic},
	Aq:       {"aq", 2, Arithmetic},
	Fmin:     {"fmin", 2, Arithmetic},
	Fmax:     {"fmax", 2, Arithmetic},
	Pow:      {"pow", 2, Arithmetic},
	Abs:      {"abs", 1, UnaryFunc},
	Acos:     {"acos", 1, UnaryFunc},
	Asin:     {"asin", 1, UnaryFunc},
	Atan:     {"atan", 1, UnaryFunc},
	Cbrt:     {"cbrt", 1, UnaryFunc},
	Ceil:     {"ceil", 1, UnaryFunc},
	Cos:      {"cos", 1, UnaryFunc},
	Cosh:     {"cosh", 1, UnaryFunc},
	Exp:      {"exp", 1, UnaryFunc},
	Floor:    {"floor", 1, UnaryFunc},
	Log:      {"log", 1, UnaryFunc},
	LogAbs:   {"logabs", 1, UnaryFunc},
	Log1p:    {"log1p", 1, UnaryFunc},
	Sin:      {"sin", 1, UnaryFunc},
	Sinh:     {"sinh", 1, UnaryFunc},
	Sqrt:     {"sqrt", 1, UnaryFunc},
	SqrtAbs:  {"sqrtabs", 1, UnaryFunc},
	Tan:      {"tan", 1, UnaryFunc},
	Tanh:     {"tanh", 1, UnaryFunc},
	Square:   {"square", 1, UnaryFunc},
	Dynamic:  {"dyn", 0, Leaf},
	Constant: {"const", 0, Leaf},
	Variable: {"var", 0, Leaf},
}

// String returns the canonical lowercase name of the type.
func (t NodeType) String() string { return typeDescs[t].name }

// Arity returns the declared arity of the type.
func (t NodeType) Arity() uint16 { return typeDescs[t].arity }

// Category returns the structural category of the type.
func (t NodeType) Category() Category { return typeDescs[t].category }

// Commutative reports whether children of this operator may be reordered.
func (t NodeType) Commutative() bool {
	switch t {
	case Add, Mul, Fmin, Fmax:
		return true
	}
	return false
}

// Foldable reports whether the operator accepts more than two children,
// combined by a left fold over the sibling list.
func (t NodeType) Foldable() bool { return typeDescs[t].category == Arithmetic }

// TypeHash returns the identity hash under which kernels for a built-in type
// are registered in a dispatch table.
func TypeHash(t NodeType) uint64 {
	var b [1]byte
	b[0] = byte(t)
	return xxhash.Sum64(b[:])
}

// Node is one record of a flattened postfix tree.
type Node struct {
	// HashValue identifies the node within the grammar; built-in operators
	// share TypeHash(Type), variables carry their column hash, dynamic
	// operators carry a caller-chosen hash.
	HashValue uint64
	// CalculatedHashValue is the content hash, computed by Tree.Hash.
	CalculatedHashValue uint64
	// Value is the constant value, or the coefficient weight for a variable.
	Value  float64
	Arity  uint16
	Length uint16 // subtree size including self: Length == 1 + sum(child Lengths)
	Depth  uint16
	Level  uint16
	Parent uint16

	Type      NodeType
	IsEnabled bool
	Optimize  bool // Value participates as a tunable parameter
}

// NewNode returns a node of the given type with the type's declared arity.
func NewNode(t NodeType) Node {
	return Node{
		HashValue:           TypeHash(t),
		CalculatedHashValue: TypeHash(t),
		Value:               1,
		Arity:               t.Arity(),
		Length:              1,
		Type:                t,
		IsEnabled:           true,
	}
}

// NewConstant returns a constant leaf holding v.
func NewConstant(v float64) Node {
	n := NewNode(Constant)
	n.Value = v
	return n
}

// NewVariable returns a variable leaf referencing the dataset column
// identified by hash, scaled by weight.
func NewVariable(hash uint64, weight float64) Node {
	n := NewNode(Variable)
	n.HashValue = hash
	n.CalculatedHashValue = hash
	n.Value = weight
	return n
}

// NewDynamic returns a node for a dynamically registered operator identified
// by hash, with the given arity.
func NewDynamic(hash uint64, arity uint16) Node {
	n := NewNode(Dynamic)
	n.HashValue = hash
	n.CalculatedHashValue = hash
	n.Arity = arity
	return n
}

func (n Node) IsLeaf() bool     { return n.Arity == 0 }
func (n Node) IsConstant() bool { return n.Type == Constant }
func (n Node) IsVariable() bool { return n.Type == Variable }
func (n Node) IsDynamic() bool  { return n.Type == Dynamic }

// contentHash hashes the node identity together with its value; used by
// Tree.Hash in strict mode so that constants and weighted variables with
// different values hash apart.
func (n Node) contentHash() uint64 {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[:8], n.HashValue)
	binary.LittleEndian.PutUint64(b[8:], math.Float64bits(n.Value))
	return xxhash.Sum64(b[:])
}
