package monitor

import (
	"errors"
	"fmt"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

// classifyAdapterError maps a chain-adapter read failure to an Outcome.
// Every monitor task only reads (TipBlock/Fetch*). A read that returns
// chainadapter.ErrLogical (a malformed response, such as an undecodable
// log) is Unrecoverable and worth logging; any other read failure is
// Recoverable.
func classifyAdapterError(op string, err error) pipeline.Outcome {
	wrapped := fmt.Errorf("%s: %w", op, err)
	if errors.Is(err, chainadapter.ErrLogical) {
		return pipeline.Unrecoverable(wrapped, true)
	}
	return pipeline.Recoverable(wrapped)
}
