package merkle

import "github.com/nomadprotocol/agents/pkg/types"

// LightTree maintains only the O(depth) frontier of a fixed-depth binary
// Merkle tree. It supports Insert and Root but cannot produce proofs.
// Outside tests nothing in this module uses it; the producer's
// Accumulator wraps a FullTree.
type LightTree struct {
	frontier [types.Depth]types.Hash
	count    uint64
}

// NewLightTree returns an empty LightTree at the canonical depth.
func NewLightTree() *LightTree {
	return &LightTree{}
}

// Count returns the number of leaves inserted so far.
func (t *LightTree) Count() uint64 {
	return t.count
}

// Insert adds leaf to the tree and returns the new root. It fails with
// ErrTreeFull once Count reaches 2^Depth.
func (t *LightTree) Insert(leaf types.Hash) (types.Hash, error) {
	if t.count>>types.Depth != 0 {
		return types.Hash{}, ErrTreeFull
	}
	t.count++
	node := leaf
	for i := 0; i < types.Depth; i++ {
		if (t.count>>uint(i))&1 == 1 {
			t.frontier[i] = node
			break
		}
		node = types.HashBytes(t.frontier[i][:], node[:])
	}
	return t.Root(), nil
}

// Root computes the current Merkle root over all inserted leaves, padded
// to 2^Depth with zero leaves.
func (t *LightTree) Root() types.Hash {
	var node types.Hash
	for i := 0; i < types.Depth; i++ {
		if (t.count>>uint(i))&1 == 1 {
			node = types.HashBytes(t.frontier[i][:], node[:])
		} else {
			z := zeroAt(i)
			node = types.HashBytes(node[:], z[:])
		}
	}
	return node
}
