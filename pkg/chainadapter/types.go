package chainadapter

import (
	"github.com/nomadprotocol/agents/pkg/types"
)

// State is a contract's lifecycle state, as reported by state().
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MessageStatus is the replica-side lifecycle of a single message.
type MessageStatus int

const (
	MessageStatusNone MessageStatus = iota
	MessageStatusProven
	MessageStatusProcessed
)

// SignedUpdateWithMeta pairs a SignedUpdate with the block it was observed
// in, as returned by FetchUpdates.
type SignedUpdateWithMeta struct {
	Update      types.SignedUpdate
	BlockNumber uint64
	// IntraBlockIndex orders multiple events within one block (e.g. EVM
	// log index); ties in block number break on this ascending.
	IntraBlockIndex uint32
	Timestamp       *int64
}

// DispatchEvent pairs a CommittedMessage with the block it was observed
// in, as returned by FetchDispatches.
type DispatchEvent struct {
	Message         types.CommittedMessage
	BlockNumber     uint64
	IntraBlockIndex uint32
}

// ProcessEvent records a replica's process(message) call reaching chain,
// as returned by FetchProcesses. Leaf is the processed message's leaf
// hash, the same identity SubmitProcess and MessageStatus key on.
type ProcessEvent struct {
	Leaf            types.Hash
	BlockNumber     uint64
	IntraBlockIndex uint32
}

// TxOutcome is the successful result of a chain submission: the
// transaction id that was ultimately included on-chain.
type TxOutcome struct {
	TxID types.Hash
}
