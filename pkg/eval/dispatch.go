package eval

import "github.com/wildfunctions/treeval/pkg/tree"

// Table maps a node's identity hash to the kernel that evaluates it for a
// given numeric type. Built-in operators are registered under
// tree.TypeHash; Dynamic operators register under their own hash, so
// distinct custom operators get distinct kernels.
//
// Registration follows a single-writer-then-many-readers discipline: build
// the table fully before evaluation starts, never register concurrently
// with lookups. Lookups on the hot path take no lock.
type Table[T Number[T]] struct {
	kernels map[uint64]Callable[T]
}

// NewTable returns a table with all built-in operators registered.
func NewTable[T Number[T]]() *Table[T] {
	tb := &Table[T]{kernels: make(map[uint64]Callable[T], tree.NumTypes)}
	for t := tree.NodeType(0); t < tree.NumTypes; t++ {
		if fn := builtinKernel[T](t); fn != nil {
			tb.kernels[tree.TypeHash(t)] = fn
		}
	}
	return tb
}

// Register binds a kernel to an identity hash, replacing any previous
// binding. Used to plug in kernels for Dynamic nodes or to substitute a
// built-in implementation.
func (tb *Table[T]) Register(hash uint64, fn Callable[T]) {
	tb.kernels[hash] = fn
}

// TryGet looks up the kernel for an identity hash. A miss is not an error:
// variable and constant leaves are special-cased by the interpreter and
// never dispatched, and an unregistered dynamic node is simply skipped.
func (tb *Table[T]) TryGet(hash uint64) (Callable[T], bool) {
	fn, ok := tb.kernels[hash]
	return fn, ok
}
