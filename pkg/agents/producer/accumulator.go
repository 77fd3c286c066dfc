package producer

import (
	"sync"

	"github.com/nomadprotocol/agents/pkg/merkle"
	"github.com/nomadprotocol/agents/pkg/types"
)

// Accumulator is the producer's local mirror of the home's dispatch tree,
// shared between AccumulatorSyncer (which ingests leaves) and Producer
// (which reads the current root every tick). A bare *merkle.FullTree is
// not safe for concurrent use across goroutines; this wrapper adds the
// one mutex the two tasks need.
type Accumulator struct {
	mu   sync.RWMutex
	tree *merkle.FullTree
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{tree: merkle.NewFullTree()}
}

// Root returns the tree's current root.
func (a *Accumulator) Root() types.Hash {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tree.Root()
}

// Count returns the number of leaves ingested so far.
func (a *Accumulator) Count() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tree.Count()
}

// Insert appends leaf and returns the new root.
func (a *Accumulator) Insert(leaf types.Hash) (types.Hash, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tree.Insert(leaf)
}
