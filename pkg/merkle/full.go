package merkle

import "github.com/nomadprotocol/agents/pkg/types"

// FullTree retains every populated node of a fixed-depth binary Merkle
// tree so it can generate inclusion proofs for any already-inserted index,
// not merely the most recently inserted one — a later insert can still
// change the proof path of an earlier leaf, because the sibling subtree to
// its right fills in with real data instead of the zero leaf.
//
// Node values are cached once they become stable: a node at (level, pos)
// covering leaf range [start, end) is stable (will never change again) the
// moment end <= count, since every leaf in its range already exists and no
// later insert can touch it. Unstable nodes are recomputed on demand. The
// cache therefore only ever grows — the arena described in the design
// notes — and nothing is ever invalidated.
type FullTree struct {
	leaves []types.Hash
	arena  [][]types.Hash // arena[level][pos], level 1..Depth; arena[0] unused
	set    [][]bool       // set[level][pos] mirrors arena's occupancy
}

// NewFullTree returns an empty FullTree at the canonical depth.
func NewFullTree() *FullTree {
	return &FullTree{
		arena: make([][]types.Hash, types.Depth+1),
		set:   make([][]bool, types.Depth+1),
	}
}

// Count returns the number of leaves inserted so far.
func (t *FullTree) Count() uint64 {
	return uint64(len(t.leaves))
}

// Insert appends leaf and returns the new root. It fails with ErrTreeFull
// once Count reaches 2^Depth.
func (t *FullTree) Insert(leaf types.Hash) (types.Hash, error) {
	if t.Count()>>types.Depth != 0 {
		return types.Hash{}, ErrTreeFull
	}
	t.leaves = append(t.leaves, leaf)
	return t.Root(), nil
}

// Root computes the current Merkle root, padded to 2^Depth with zero
// leaves.
func (t *FullTree) Root() types.Hash {
	return t.nodeAt(types.Depth, 0)
}

// Prove returns the inclusion proof for index against the tree's current
// state. It fails with ErrIndexOutOfRange when index has not been
// inserted yet.
func (t *FullTree) Prove(index uint32) (types.Proof, error) {
	if uint64(index) >= t.Count() {
		return types.Proof{}, ErrIndexOutOfRange
	}
	var p types.Proof
	p.Leaf = t.leaves[index]
	p.Index = index
	for level := 0; level < types.Depth; level++ {
		siblingPos := (uint64(index) >> uint(level)) ^ 1
		p.Path[level] = t.nodeAt(level, siblingPos)
	}
	return p, nil
}

// nodeAt returns the value of the node at (level, pos), where level 0 is
// the leaf level. pos is a node index within that level, i.e. the node
// covers leaves [pos*2^level, (pos+1)*2^level).
func (t *FullTree) nodeAt(level int, pos uint64) types.Hash {
	if level == 0 {
		if pos < uint64(len(t.leaves)) {
			return t.leaves[pos]
		}
		return zeroAt(0)
	}

	if cached, ok := t.cached(level, pos); ok {
		return cached
	}

	start := pos << uint(level)
	count := t.Count()
	if start >= count {
		return zeroAt(level)
	}

	left := t.nodeAt(level-1, pos*2)
	right := t.nodeAt(level-1, pos*2+1)
	val := types.HashBytes(left[:], right[:])

	end := start + (uint64(1) << uint(level))
	if end <= count {
		t.store(level, pos, val)
	}
	return val
}

func (t *FullTree) cached(level int, pos uint64) (types.Hash, bool) {
	setRow := t.set[level]
	if pos >= uint64(len(setRow)) || !setRow[pos] {
		return types.Hash{}, false
	}
	return t.arena[level][pos], true
}

func (t *FullTree) store(level int, pos uint64, val types.Hash) {
	row := t.arena[level]
	setRow := t.set[level]
	if pos >= uint64(len(row)) {
		grownVals := make([]types.Hash, pos+1)
		grownSet := make([]bool, pos+1)
		copy(grownVals, row)
		copy(grownSet, setRow)
		row, setRow = grownVals, grownSet
		t.arena[level] = row
		t.set[level] = setRow
	}
	row[pos] = val
	setRow[pos] = true
}
