package producer

import (
	"errors"
	"fmt"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

// classifyAdapterError maps a chain-adapter failure from a Home or
// Replica call to an Outcome: ErrTransient is Recoverable (adapter
// timeout), ErrLogical is Unrecoverable (malformed response).
func classifyAdapterError(op string, err error) pipeline.Outcome {
	wrapped := fmt.Errorf("%s: %w", op, err)
	if errors.Is(err, chainadapter.ErrLogical) {
		return pipeline.Unrecoverable(wrapped, true)
	}
	return pipeline.Recoverable(wrapped)
}

// classifyProducedUpdateError maps a StoreProducedUpdate failure: a
// detected I4 conflict is a serious local fault (Unrecoverable, worth
// logging), anything else is an ordinary Index I/O failure (Recoverable).
func classifyProducedUpdateError(op string, err error) pipeline.Outcome {
	wrapped := fmt.Errorf("%s: %w", op, err)
	if errors.Is(err, index.ErrProducerConflict) {
		return pipeline.Unrecoverable(wrapped, true)
	}
	return pipeline.Recoverable(wrapped)
}
