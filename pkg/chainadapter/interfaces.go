package chainadapter

import (
	"context"

	"github.com/nomadprotocol/agents/pkg/types"
)

// Indexer is the range-query surface Contract Sync drives. Returned events
// must be sorted by (block_number, intra_block_index) ascending.
type Indexer interface {
	TipBlock(ctx context.Context) (uint64, error)
	FetchUpdates(ctx context.Context, from, to uint64) ([]SignedUpdateWithMeta, error)
	FetchDispatches(ctx context.Context, from, to uint64) ([]DispatchEvent, error)
}

// Contract is the capability surface common to Home and Replica.
type Contract interface {
	Indexer

	State(ctx context.Context) (State, error)
	Updater(ctx context.Context) ([20]byte, error)
}

// Home is the sending contract on the origin chain.
type Home interface {
	Contract

	CommittedRoot(ctx context.Context) (types.Hash, error)
	SubmitUpdate(ctx context.Context, su types.SignedUpdate) (TxOutcome, error)
}

// Replica is the receiving contract on a destination chain.
type Replica interface {
	Contract

	CommittedRoot(ctx context.Context) (types.Hash, error)
	AcceptsRoot(ctx context.Context, root types.Hash) (bool, error)
	SubmitUpdate(ctx context.Context, su types.SignedUpdate) (TxOutcome, error)
	SubmitProve(ctx context.Context, p types.Proof) (TxOutcome, error)
	SubmitProcess(ctx context.Context, msg types.Message) (TxOutcome, error)
	MessageStatus(ctx context.Context, leaf types.Hash) (MessageStatus, error)

	// FetchProcesses returns process events in block range [from, to],
	// sorted by (block_number, intra_block_index) ascending, for the
	// monitor's relay-to-process and end-to-end latency computations.
	FetchProcesses(ctx context.Context, from, to uint64) ([]ProcessEvent, error)
}

// ConnectionManager submits slashable double-update proofs, a capability
// shared across every replica connected to the offending home.
type ConnectionManager interface {
	SubmitDoubleUpdate(ctx context.Context, d types.DoubleUpdate) (TxOutcome, error)
}
