package submitter

import (
	"context"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
)

// Intent is a chain-dialect-specific transaction ready to sign and send:
// a target contract and its already-ABI-packed calldata. Callers (chain
// adapter bindings) own calldata construction; the submitter owns
// signing, broadcast, and confirmation.
type Intent struct {
	ContractAddress [20]byte
	Data            []byte
}

// Submitter delivers one Intent to the chain and resolves it to a
// terminal TxOutcome, or a typed error — ErrDroppedFromMempool,
// *RevertedError, or *SubmissionFailedError.
type Submitter interface {
	Submit(ctx context.Context, intent Intent) (chainadapter.TxOutcome, error)
}
