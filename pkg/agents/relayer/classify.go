package relayer

import (
	"errors"
	"fmt"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

// classifyAdapterError maps a chain-adapter failure to an Outcome:
// ErrTransient is Recoverable (adapter timeout), ErrLogical is
// Unrecoverable (malformed response, signature mismatch).
func classifyAdapterError(op string, err error) pipeline.Outcome {
	wrapped := fmt.Errorf("%s: %w", op, err)
	if errors.Is(err, chainadapter.ErrLogical) {
		return pipeline.Unrecoverable(wrapped, true)
	}
	return pipeline.Recoverable(wrapped)
}
