package submitter

import (
	"errors"
	"fmt"

	"github.com/nomadprotocol/agents/pkg/types"
)

// ErrDroppedFromMempool is returned when a submitted transaction is never
// mined within the submitter's confirmation timeout.
var ErrDroppedFromMempool = errors.New("submitter: dropped from mempool")

// RevertedError is returned when a transaction is mined but its execution
// reverted. It is surfaced, not retried — the calling agent decides what
// to do with a revert.
type RevertedError struct {
	TxID types.Hash
}

func (e *RevertedError) Error() string {
	return fmt.Sprintf("submitter: reverted: tx %s", e.TxID)
}

// SubmissionFailedError wraps any failure to even get a transaction onto
// the network (signing failure, RPC rejection, relay-service rejection).
type SubmissionFailedError struct {
	Cause error
}

func (e *SubmissionFailedError) Error() string {
	return fmt.Sprintf("submitter: submission failed: %v", e.Cause)
}

func (e *SubmissionFailedError) Unwrap() error { return e.Cause }
