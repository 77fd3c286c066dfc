package merkle

import "github.com/nomadprotocol/agents/pkg/types"

// Verify reconstructs a root from proof.Leaf up through proof.Path,
// choosing left/right at level i by bit i of proof.Index, and reports
// whether the reconstructed root equals root.
func Verify(proof types.Proof, root types.Hash) bool {
	return ProofRoot(proof) == root
}

// ProofRoot reconstructs the root implied by proof, without comparing it
// against any accepted root. Agents use this directly (e.g. the processor
// polls replica.AcceptsRoot against it) rather than going through Verify.
func ProofRoot(proof types.Proof) types.Hash {
	node := proof.Leaf
	for i := 0; i < types.Depth; i++ {
		sibling := proof.Path[i]
		if (proof.Index>>uint(i))&1 == 1 {
			node = types.HashBytes(sibling[:], node[:])
		} else {
			node = types.HashBytes(node[:], sibling[:])
		}
	}
	return node
}
