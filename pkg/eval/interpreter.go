package eval

import (
	"github.com/wildfunctions/treeval/pkg/dataset"
	"github.com/wildfunctions/treeval/pkg/tree"
)

// Interpreter evaluates trees over row ranges of a dataset, streaming
// BatchSize-wide row batches through the dispatch table's kernels.
//
// Evaluation is a pure function of its inputs: all scratch state is
// call-scoped, so one Interpreter may serve any number of concurrent
// evaluations once its table is built.
//
// The hot path assumes a well-formed tree and a dataset holding every
// referenced variable; neither is validated per call.
type Interpreter[T Number[T]] struct {
	table *Table[T]
}

// NewInterpreter wraps a dispatch table; a nil table means the built-ins.
func NewInterpreter[T Number[T]](table *Table[T]) *Interpreter[T] {
	if table == nil {
		table = NewTable[T]()
	}
	return &Interpreter[T]{table: table}
}

// Table exposes the dispatch table, e.g. to register dynamic kernels before
// evaluation begins.
func (in *Interpreter[T]) Table() *Table[T] { return in.table }

// nodeMeta is the per-node state resolved once before the batch loop.
type nodeMeta[T Number[T]] struct {
	param  T         // active coefficient: override, or the node's own value
	values []float64 // dataset column window for variables, else nil
	call   Callable[T]
	hasFn  bool
}

// Evaluate computes one output per row of rng and returns them in a fresh
// slice. params, when non-nil, overrides the values of optimize-flagged
// nodes in tree order.
func (in *Interpreter[T]) Evaluate(t *tree.Tree, d *dataset.Dataset, rng dataset.Range, params []T) []T {
	out := make([]T, rng.Size())
	in.EvaluateInto(t, d, rng, out, params)
	return out
}

// EvaluateBatched splits rng into chunks of batchSize rows and evaluates
// each chunk independently into a shared output slice. Chunks share no
// mutable state beyond their own output section, so callers may also invoke
// EvaluateInto on disjoint sub-ranges concurrently themselves.
func (in *Interpreter[T]) EvaluateBatched(t *tree.Tree, d *dataset.Dataset, rng dataset.Range, batchSize int, params []T) []T {
	if batchSize <= 0 {
		batchSize = BatchSize
	}
	out := make([]T, rng.Size())
	in.EvaluateBatchedInto(t, d, rng, batchSize, out, params)
	return out
}

// EvaluateBatchedInto is EvaluateBatched writing into a caller-provided
// slice of length rng.Size().
func (in *Interpreter[T]) EvaluateBatchedInto(t *tree.Tree, d *dataset.Dataset, rng dataset.Range, batchSize int, out []T, params []T) {
	if batchSize <= 0 {
		batchSize = BatchSize
	}
	for off := 0; off < rng.Size(); off += batchSize {
		end := off + batchSize
		if end > rng.Size() {
			end = rng.Size()
		}
		sub := dataset.Range{Start: rng.Start + off, End: rng.Start + end}
		in.EvaluateInto(t, d, sub, out[off:end], params)
	}
}

// EvaluateInto evaluates rng into the caller-provided slice out, which must
// have length rng.Size().
func (in *Interpreter[T]) EvaluateInto(t *tree.Tree, d *dataset.Dataset, rng dataset.Range, out []T, params []T) {
	nodes := t.Nodes()
	rows := rng.Size()

	// Pre-scan: resolve each node's coefficient, dataset window and kernel
	// once, and back the batch columns with a single allocation.
	meta := make([]nodeMeta[T], len(nodes))
	buf := make([][]T, len(nodes))
	backing := make([]T, len(nodes)*BatchSize)
	var zero T
	idx := 0
	for i, n := range nodes {
		m := &meta[i]
		buf[i] = backing[i*BatchSize : (i+1)*BatchSize]
		if params != nil && n.Optimize {
			m.param = params[idx]
			idx++
		} else {
			m.param = zero.FromFloat(n.Value)
		}
		if n.IsVariable() {
			m.values = d.GetValues(n.HashValue)[rng.Start:rng.End]
		}
		m.call, m.hasFn = in.table.TryGet(n.HashValue)
		if n.IsConstant() {
			col := buf[i]
			for r := range col {
				col[r] = m.param
			}
		}
	}

	for row := 0; row < rows; row += BatchSize {
		rem := rows - row
		if rem > BatchSize {
			rem = BatchSize
		}
		for i := range nodes {
			switch {
			case nodes[i].IsVariable():
				col, vals, w := buf[i], meta[i].values[row:row+rem], meta[i].param
				for r := 0; r < rem; r++ {
					col[r] = w.MulFloat(vals[r])
				}
			case meta[i].hasFn:
				meta[i].call(buf, nodes, i, rem)
			}
		}
		// the batch result lives in the root's column, the last one
		copy(out[row:row+rem], buf[len(nodes)-1][:rem])
	}
}

// default scalar machinery for the package-level convenience entry points
var defaultScalar = NewInterpreter[Scalar](nil)

// Evaluate runs a tree over rng with the built-in kernels and returns plain
// float64 outputs. coeff, when non-nil, overrides the optimize-flagged node
// values in tree order.
func Evaluate(t *tree.Tree, d *dataset.Dataset, rng dataset.Range, coeff []float64) []float64 {
	var params []Scalar
	if coeff != nil {
		params = AsScalars(coeff)
	}
	return AsFloats(defaultScalar.Evaluate(t, d, rng, params))
}
