package tree

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// HashMode selects how leaf values contribute to the content hash.
type HashMode uint8

const (
	// Strict hashes constant values and variable weights, so two constants
	// with different values hash apart.
	Strict HashMode = iota
	// Relaxed ignores leaf values: trees with the same shape and the same
	// operators/variables hash alike regardless of their coefficients.
	Relaxed
)

// Hash computes CalculatedHashValue for every node, bottom-up. For a
// commutative operator the child hashes are combined order-independently,
// so a+b and b+a produce the same hash without physically sorting the tree.
// Returns the root hash.
func (t *Tree) Hash(mode HashMode) uint64 {
	nodes := t.nodes
	for i := range nodes {
		n := &nodes[i]
		if n.IsLeaf() {
			if mode == Strict && (n.IsConstant() || n.IsVariable()) {
				n.CalculatedHashValue = n.contentHash()
			} else {
				n.CalculatedHashValue = n.HashValue
			}
			continue
		}
		child := make([]uint64, 0, n.Arity)
		j := i - 1
		for k := uint16(0); k < n.Arity; k++ {
			child = append(child, nodes[j].CalculatedHashValue)
			j -= int(nodes[j].Length)
		}
		if n.Type.Commutative() {
			sort.Slice(child, func(a, b int) bool { return child[a] < child[b] })
		}
		d := xxhash.New()
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], n.HashValue)
		_, _ = d.Write(b[:])
		for _, h := range child {
			binary.LittleEndian.PutUint64(b[:], h)
			_, _ = d.Write(b[:])
		}
		n.CalculatedHashValue = d.Sum64()
	}
	return nodes[len(nodes)-1].CalculatedHashValue
}
