// Package merkle builds Merkle trees over hashable items and proves
// inclusion of a leaf against the root. It is a pure helper: callers
// pass any items implementing Hashable, and each item's Hash is used
// as its leaf.
package merkle

import (
	"empower1.com/empower1blockchain/internal/crypto"
)

// Hashable is anything a Merkle tree can use as a leaf.
type Hashable interface {
	Hash() crypto.H256
}

// Tree is a binary Merkle tree stored level by level: levels[0] holds
// the (possibly last-duplicated) leaves, levels[len-1] holds the
// single root. Each level's slice is the exact set of nodes hashed to
// produce the next level, including any duplicated node, so sibling
// lookups never have to reconstruct a padding decision after the
// fact.
type Tree struct {
	levels [][]crypto.H256
}

func hashChildren(left, right crypto.H256) crypto.H256 {
	buf := make([]byte, 0, 2*crypto.H256Size)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return crypto.SHA256(buf)
}

// New builds a Merkle tree over a non-empty ordered sequence of
// hashable items. A single-item tree has that item's hash as its
// root. At every level, an odd node count is made even by duplicating
// the last node before pairing and hashing; the duplicated node is
// kept in that level's stored slice so it is available as a sibling
// for Proof.
func New[T Hashable](items []T) *Tree {
	if len(items) == 0 {
		panic("merkle: New requires a non-empty item sequence")
	}

	level := make([]crypto.H256, len(items))
	for i, item := range items {
		level[i] = item.Hash()
	}

	levels := [][]crypto.H256{level}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
			levels[len(levels)-1] = level
		}
		next := make([]crypto.H256, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, hashChildren(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}

	return &Tree{levels: levels}
}

// Root returns the tree's single top node.
func (t *Tree) Root() crypto.H256 {
	return t.levels[len(t.levels)-1][0]
}

// Proof returns the sequence of sibling hashes from leaf index i up
// to (excluding) the root.
func (t *Tree) Proof(index int) []crypto.H256 {
	proof := make([]crypto.H256, 0, len(t.levels)-1)
	i := index
	for lvl := 0; lvl < len(t.levels)-1; lvl++ {
		if i%2 == 0 {
			proof = append(proof, t.levels[lvl][i+1])
		} else {
			proof = append(proof, t.levels[lvl][i-1])
		}
		i /= 2
	}
	return proof
}

// Verify recomputes the root from datum and proof, hashing with each
// sibling on the side indicated by index's bits (LSB first, same
// order Proof walks up in), and reports whether it matches root.
// leafCount is accepted for symmetry with Proof's caller-visible
// contract but isn't needed: index's parity at each level is
// well-defined independent of how many leaves the level was padded
// to.
func Verify(root crypto.H256, datum crypto.H256, proof []crypto.H256, index int, leafCount int) bool {
	_ = leafCount
	cur := datum
	i := index
	for _, sibling := range proof {
		if i%2 == 0 {
			cur = hashChildren(cur, sibling)
		} else {
			cur = hashChildren(sibling, cur)
		}
		i /= 2
	}
	return root == cur
}
