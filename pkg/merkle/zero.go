package merkle

import "github.com/nomadprotocol/agents/pkg/types"

// zeroTable holds ZERO[0..Depth], computed once at process start and
// identical across every agent process — cross-agent hash agreement
// depends on it.
var zeroTable = buildZeroTable(types.Depth)

func buildZeroTable(depth int) []types.Hash {
	t := make([]types.Hash, depth+1)
	t[0] = types.ZeroHash
	for i := 1; i <= depth; i++ {
		t[i] = types.HashBytes(t[i-1][:], t[i-1][:])
	}
	return t
}

// zeroAt returns ZERO[i], the root of an empty subtree of height i.
func zeroAt(i int) types.Hash {
	return zeroTable[i]
}

// EmptyRoot returns the fixed root of an empty tree of the canonical depth,
// ZERO[Depth]. It is a protocol constant.
func EmptyRoot() types.Hash {
	return zeroAt(types.Depth)
}
