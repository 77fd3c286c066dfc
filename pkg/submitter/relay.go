package submitter

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/types"
)

// RelayTaskState is a relay service's reported execution state for one
// submitted task.
type RelayTaskState string

const (
	RelayTaskCheckPending    RelayTaskState = "CheckPending"
	RelayTaskExecPending     RelayTaskState = "ExecPending"
	RelayTaskExecSuccess     RelayTaskState = "ExecSuccess"
	RelayTaskWaitingForConf  RelayTaskState = "WaitingForConfirmation"
	RelayTaskExecReverted    RelayTaskState = "ExecReverted"
	RelayTaskBlacklisted     RelayTaskState = "Blacklisted"
	RelayTaskCancelled       RelayTaskState = "Cancelled"
	RelayTaskNotFound        RelayTaskState = "NotFound"
)

// acceptableRelayStates are the states a task may be in while the
// submitter keeps polling; anything else is a terminal failure.
var acceptableRelayStates = map[RelayTaskState]bool{
	RelayTaskCheckPending:   true,
	RelayTaskExecPending:    true,
	RelayTaskWaitingForConf: true,
	RelayTaskExecSuccess:    true,
}

// RelayTaskStatus is one poll response from the relay service.
type RelayTaskStatus struct {
	TaskID         string
	TaskState      RelayTaskState
	TransactionHash string // set once execution has happened, even on revert
}

// RelayClient is the subset of a relay service's HTTP API RelaySubmitter
// depends on.
type RelayClient interface {
	SendRelayTransaction(ctx context.Context, contractAddress [20]byte, data []byte, gasLimit uint64) (taskID string, err error)
	GetTaskStatus(ctx context.Context, taskID string) (RelayTaskStatus, error)
}

// RelaySubmitter hands intents to an external relay service and polls its
// task-status endpoint until the task reaches a terminal state. Grounded
// on the original implementation's Gelato submission arm
// (SubmitterClient::Gelato), generalized from Gelato specifically to any
// relay exposing the same submit/poll shape.
type RelaySubmitter struct {
	Client   RelayClient
	GasLimit uint64
	Poll     time.Duration
}

func (r *RelaySubmitter) Submit(ctx context.Context, intent Intent) (chainadapter.TxOutcome, error) {
	gasLimit := r.GasLimit
	if gasLimit == 0 {
		gasLimit = 100_000
	}
	taskID, err := r.Client.SendRelayTransaction(ctx, intent.ContractAddress, intent.Data, gasLimit)
	if err != nil {
		return chainadapter.TxOutcome{}, &SubmissionFailedError{Cause: fmt.Errorf("send relay transaction: %w", err)}
	}

	poll := r.Poll
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		status, err := r.Client.GetTaskStatus(ctx, taskID)
		if err != nil {
			return chainadapter.TxOutcome{}, &SubmissionFailedError{Cause: fmt.Errorf("poll task %s: %w", taskID, err)}
		}

		if !acceptableRelayStates[status.TaskState] {
			if status.TaskState == RelayTaskExecReverted && status.TransactionHash != "" {
				txID, err := parseTxHash(status.TransactionHash)
				if err != nil {
					return chainadapter.TxOutcome{}, &SubmissionFailedError{Cause: err}
				}
				return chainadapter.TxOutcome{}, &RevertedError{TxID: txID}
			}
			return chainadapter.TxOutcome{}, &SubmissionFailedError{
				Cause: fmt.Errorf("relay task %s reached terminal state %s", taskID, status.TaskState),
			}
		}

		if status.TaskState == RelayTaskExecSuccess && status.TransactionHash != "" {
			txID, err := parseTxHash(status.TransactionHash)
			if err != nil {
				return chainadapter.TxOutcome{}, &SubmissionFailedError{Cause: err}
			}
			return chainadapter.TxOutcome{TxID: txID}, nil
		}

		select {
		case <-ctx.Done():
			return chainadapter.TxOutcome{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func parseTxHash(s string) (types.Hash, error) {
	trimmed := s
	if len(trimmed) >= 2 && trimmed[0] == '0' && (trimmed[1] == 'x' || trimmed[1] == 'X') {
		trimmed = trimmed[2:]
	}
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return types.Hash{}, fmt.Errorf("malformed tx hash from relay: %w", err)
	}
	h, ok := types.HashFromBytes(b)
	if !ok {
		return types.Hash{}, errors.New("malformed tx hash from relay: wrong length")
	}
	return h, nil
}
