// Package mockadapter provides in-memory Home, Replica, and
// ConnectionManager implementations. Agents run against it in tests and the
// monitor runs against it in dry-run mode, where there is no real chain to
// poll but the same state-machine code still needs something to drive.
package mockadapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/merkle"
	"github.com/nomadprotocol/agents/pkg/types"
)

// Home is an in-memory chainadapter.Home. Dispatch is not part of the
// interface — it is the test/dry-run hook that stands in for an
// application contract calling into the real home.
type Home struct {
	mu sync.Mutex

	domain   uint32
	updater  [20]byte
	state    chainadapter.State
	tree     *merkle.FullTree
	root     types.Hash
	block    uint64
	dispatch []chainadapter.DispatchEvent
	updates  []chainadapter.SignedUpdateWithMeta
}

// NewHome returns an empty mock home for domain, attested by updater.
func NewHome(domain uint32, updater [20]byte) *Home {
	tree := merkle.NewFullTree()
	return &Home{
		domain:  domain,
		updater: updater,
		state:   chainadapter.StateActive,
		tree:    tree,
		root:    tree.Root(),
	}
}

// Dispatch inserts msg into the home's accumulator and records a
// DispatchEvent at the next mock block height.
func (h *Home) Dispatch(msg types.Message) (types.CommittedMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	leafIndex := uint32(h.tree.Count())
	root, err := h.tree.Insert(msg.Leaf())
	if err != nil {
		return types.CommittedMessage{}, fmt.Errorf("mockadapter: dispatch: %w", err)
	}
	cm := types.CommittedMessage{
		LeafIndex:     leafIndex,
		CommittedRoot: root,
		Message:       msg,
	}
	h.block++
	h.dispatch = append(h.dispatch, chainadapter.DispatchEvent{
		Message:         cm,
		BlockNumber:     h.block,
		IntraBlockIndex: 0,
	})
	return cm, nil
}

// SetFailed forces subsequent State() calls to report StateFailed,
// simulating a fraud-proof slashing outcome.
func (h *Home) SetFailed() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = chainadapter.StateFailed
}

func (h *Home) TipBlock(ctx context.Context) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.block, nil
}

func (h *Home) FetchUpdates(ctx context.Context, from, to uint64) ([]chainadapter.SignedUpdateWithMeta, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []chainadapter.SignedUpdateWithMeta
	for _, u := range h.updates {
		if u.BlockNumber >= from && u.BlockNumber <= to {
			out = append(out, u)
		}
	}
	return out, nil
}

func (h *Home) FetchDispatches(ctx context.Context, from, to uint64) ([]chainadapter.DispatchEvent, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []chainadapter.DispatchEvent
	for _, d := range h.dispatch {
		if d.BlockNumber >= from && d.BlockNumber <= to {
			out = append(out, d)
		}
	}
	return out, nil
}

func (h *Home) State(ctx context.Context) (chainadapter.State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, nil
}

func (h *Home) Updater(ctx context.Context) ([20]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.updater, nil
}

func (h *Home) CommittedRoot(ctx context.Context) (types.Hash, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.root, nil
}

// SubmitUpdate validates that su extends the home's current committed root
// and was signed by the registered updater, then advances the root.
func (h *Home) SubmitUpdate(ctx context.Context, su types.SignedUpdate) (chainadapter.TxOutcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if su.Update.HomeDomain != h.domain {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: home: %w: wrong domain", chainadapter.ErrLogical)
	}
	if su.Update.PreviousRoot != h.root {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: home: %w: stale previous root", chainadapter.ErrLogical)
	}
	signer, err := su.Recover()
	if err != nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: home: %w: %v", chainadapter.ErrLogical, err)
	}
	if signer != h.updater {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: home: %w: signer mismatch", chainadapter.ErrLogical)
	}

	h.root = su.Update.NewRoot
	h.block++
	h.updates = append(h.updates, chainadapter.SignedUpdateWithMeta{
		Update:          su,
		BlockNumber:     h.block,
		IntraBlockIndex: 0,
	})
	txID := types.HashBytes(su.Update.NewRoot[:], []byte{byte(len(h.updates))})
	return chainadapter.TxOutcome{TxID: txID}, nil
}

// Replica is an in-memory chainadapter.Replica.
type Replica struct {
	mu sync.Mutex

	domain    uint32
	updater   [20]byte
	state     chainadapter.State
	root      types.Hash
	accepted  map[types.Hash]bool
	block     uint64
	updates   []chainadapter.SignedUpdateWithMeta
	status    map[types.Hash]chainadapter.MessageStatus
	processes []chainadapter.ProcessEvent
}

// NewReplica returns an empty mock replica that trusts updater's
// signatures and starts from root as its accepted committed root.
func NewReplica(domain uint32, updater [20]byte, root types.Hash) *Replica {
	return &Replica{
		domain:   domain,
		updater:  updater,
		state:    chainadapter.StateActive,
		root:     root,
		accepted: map[types.Hash]bool{root: true},
		status:   make(map[types.Hash]chainadapter.MessageStatus),
	}
}

func (r *Replica) TipBlock(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.block, nil
}

func (r *Replica) FetchUpdates(ctx context.Context, from, to uint64) ([]chainadapter.SignedUpdateWithMeta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chainadapter.SignedUpdateWithMeta
	for _, u := range r.updates {
		if u.BlockNumber >= from && u.BlockNumber <= to {
			out = append(out, u)
		}
	}
	return out, nil
}

// FetchDispatches is unused on a replica but present to satisfy Indexer;
// replicas never originate dispatches.
func (r *Replica) FetchDispatches(ctx context.Context, from, to uint64) ([]chainadapter.DispatchEvent, error) {
	return nil, nil
}

func (r *Replica) State(ctx context.Context) (chainadapter.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, nil
}

func (r *Replica) Updater(ctx context.Context) ([20]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updater, nil
}

func (r *Replica) CommittedRoot(ctx context.Context) (types.Hash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.root, nil
}

func (r *Replica) AcceptsRoot(ctx context.Context, root types.Hash) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accepted[root], nil
}

func (r *Replica) SubmitUpdate(ctx context.Context, su types.SignedUpdate) (chainadapter.TxOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if su.Update.HomeDomain != r.domain {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: replica: %w: wrong domain", chainadapter.ErrLogical)
	}
	if !r.accepted[su.Update.PreviousRoot] {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: replica: %w: unknown previous root", chainadapter.ErrLogical)
	}
	signer, err := su.Recover()
	if err != nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: replica: %w: %v", chainadapter.ErrLogical, err)
	}
	if signer != r.updater {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: replica: %w: signer mismatch", chainadapter.ErrLogical)
	}

	r.root = su.Update.NewRoot
	r.accepted[su.Update.NewRoot] = true
	r.block++
	r.updates = append(r.updates, chainadapter.SignedUpdateWithMeta{
		Update:          su,
		BlockNumber:     r.block,
		IntraBlockIndex: 0,
	})
	txID := types.HashBytes(su.Update.NewRoot[:], []byte{byte(len(r.updates))})
	return chainadapter.TxOutcome{TxID: txID}, nil
}

func (r *Replica) SubmitProve(ctx context.Context, p types.Proof) (chainadapter.TxOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !merkle.Verify(p, r.root) {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: replica: %w: proof does not verify against accepted root", chainadapter.ErrLogical)
	}
	if r.status[p.Leaf] < chainadapter.MessageStatusProven {
		r.status[p.Leaf] = chainadapter.MessageStatusProven
	}
	r.block++
	txID := types.HashBytes(p.Leaf[:], []byte{byte(r.block)})
	return chainadapter.TxOutcome{TxID: txID}, nil
}

func (r *Replica) SubmitProcess(ctx context.Context, msg types.Message) (chainadapter.TxOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	leaf := msg.Leaf()
	if r.status[leaf] < chainadapter.MessageStatusProven {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: replica: %w: message not proven", chainadapter.ErrLogical)
	}
	if r.status[leaf] == chainadapter.MessageStatusProcessed {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: replica: %w: message already processed", chainadapter.ErrLogical)
	}
	r.status[leaf] = chainadapter.MessageStatusProcessed
	r.block++
	r.processes = append(r.processes, chainadapter.ProcessEvent{
		Leaf:            leaf,
		BlockNumber:     r.block,
		IntraBlockIndex: 0,
	})
	txID := types.HashBytes(leaf[:], []byte{byte(r.block), 0xff})
	return chainadapter.TxOutcome{TxID: txID}, nil
}

func (r *Replica) MessageStatus(ctx context.Context, leaf types.Hash) (chainadapter.MessageStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status[leaf], nil
}

func (r *Replica) FetchProcesses(ctx context.Context, from, to uint64) ([]chainadapter.ProcessEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chainadapter.ProcessEvent
	for _, p := range r.processes {
		if p.BlockNumber >= from && p.BlockNumber <= to {
			out = append(out, p)
		}
	}
	return out, nil
}

// ConnectionManager is an in-memory chainadapter.ConnectionManager; it
// simply records every double-update it is handed for test assertions.
type ConnectionManager struct {
	mu        sync.Mutex
	submitted []types.DoubleUpdate
}

// NewConnectionManager returns an empty mock connection manager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{}
}

func (c *ConnectionManager) SubmitDoubleUpdate(ctx context.Context, d types.DoubleUpdate) (chainadapter.TxOutcome, error) {
	valid, err := d.Valid()
	if err != nil {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: connection manager: %w", err)
	}
	if !valid {
		return chainadapter.TxOutcome{}, fmt.Errorf("mockadapter: connection manager: %w: not a genuine double update", chainadapter.ErrLogical)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted = append(c.submitted, d)
	txID := types.HashBytes(d.First.Signature[:], d.Second.Signature[:])
	return chainadapter.TxOutcome{TxID: txID}, nil
}

// Submitted returns every double update accepted so far, for test
// assertions.
func (c *ConnectionManager) Submitted() []types.DoubleUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.DoubleUpdate, len(c.submitted))
	copy(out, c.submitted)
	return out
}
