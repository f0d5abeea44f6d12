package tree

// Tree is an expression stored as a flat node sequence in postfix order:
// the children of the node at position i occupy the contiguous subtrees
// immediately preceding i, innermost first. The first child of node i sits
// at i-1; each next sibling is found by stepping back the previous sibling's
// Length. This index arithmetic is the load-bearing invariant of the whole
// evaluator — it replaces pointer-based child links with slice addressing.
type Tree struct {
	nodes []Node
}

// New builds a tree from nodes already in postfix order and computes the
// structural metadata (Length, Depth, Level, Parent).
func New(nodes ...Node) *Tree {
	t := &Tree{nodes: nodes}
	t.UpdateMeta()
	return t
}

// Nodes returns the underlying node slice. Callers must not reorder it.
func (t *Tree) Nodes() []Node { return t.nodes }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the root node, always the last element.
func (t *Tree) Root() Node { return t.nodes[len(t.nodes)-1] }

// Depth returns the depth of the tree.
func (t *Tree) Depth() int {
	if len(t.nodes) == 0 {
		return 0
	}
	return int(t.nodes[len(t.nodes)-1].Depth)
}

// Children returns the indices of the children of the node at i, first
// child first.
func (t *Tree) Children(i int) []int {
	n := t.nodes[i]
	idx := make([]int, 0, n.Arity)
	j := i - 1
	for k := uint16(0); k < n.Arity; k++ {
		idx = append(idx, j)
		j -= int(t.nodes[j].Length)
	}
	return idx
}

// UpdateMeta recomputes Length, Depth, Level and Parent bottom-up from the
// node arities. It must be called after any structural edit.
func (t *Tree) UpdateMeta() {
	nodes := t.nodes
	for i := range nodes {
		n := &nodes[i]
		n.Length = 1
		n.Depth = 1
		j := i - 1
		for k := uint16(0); k < n.Arity; k++ {
			c := &nodes[j]
			n.Length += c.Length
			if n.Depth < c.Depth+1 {
				n.Depth = c.Depth + 1
			}
			j -= int(c.Length)
		}
	}
	if len(nodes) == 0 {
		return
	}
	root := len(nodes) - 1
	nodes[root].Parent = uint16(root)
	nodes[root].Level = 1
	for i := root; i >= 0; i-- {
		n := nodes[i]
		j := i - 1
		for k := uint16(0); k < n.Arity; k++ {
			nodes[j].Parent = uint16(i)
			nodes[j].Level = n.Level + 1
			j -= int(nodes[j].Length)
		}
	}
}

// Coefficients returns the values of the optimize-flagged nodes in tree
// (postfix) order. This is the parameter vector layout expected by the
// evaluator's override array and by the Jacobian.
func (t *Tree) Coefficients() []float64 {
	var coeff []float64
	for _, n := range t.nodes {
		if n.Optimize {
			coeff = append(coeff, n.Value)
		}
	}
	return coeff
}

// SetCoefficients writes values back into the optimize-flagged nodes, in the
// same order Coefficients reports them. Extra values are ignored.
func (t *Tree) SetCoefficients(coeff []float64) {
	j := 0
	for i := range t.nodes {
		if t.nodes[i].Optimize && j < len(coeff) {
			t.nodes[i].Value = coeff[j]
			j++
		}
	}
}

// Sort orders the children of every commutative operator by calculated hash
// value, descending subtree length breaking ties. Evaluation does not need
// it; hashing and duplicate detection do, so that a+b and b+a collapse to
// one canonical form. Hash must have been called first.
func (t *Tree) Sort() {
	sorted := make([]Node, 0, len(t.nodes))
	var visit func(i int)
	visit = func(i int) {
		n := t.nodes[i]
		if n.IsLeaf() {
			sorted = append(sorted, n)
			return
		}
		children := t.Children(i)
		if n.Type.Commutative() {
			// insertion sort; child lists are tiny
			for a := 1; a < len(children); a++ {
				for b := a; b > 0 && t.childLess(children[b], children[b-1]); b-- {
					children[b], children[b-1] = children[b-1], children[b]
				}
			}
		}
		// children were collected first-to-last; emit in reverse so the
		// postfix layout keeps the first child closest to the parent
		for k := len(children) - 1; k >= 0; k-- {
			visit(children[k])
		}
		sorted = append(sorted, n)
	}
	visit(len(t.nodes) - 1)
	t.nodes = sorted
	t.UpdateMeta()
}

func (t *Tree) childLess(i, j int) bool {
	a, b := t.nodes[i], t.nodes[j]
	if a.CalculatedHashValue != b.CalculatedHashValue {
		return a.CalculatedHashValue < b.CalculatedHashValue
	}
	return a.Length > b.Length
}
