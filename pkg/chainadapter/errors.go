package chainadapter

import "errors"

var (
	// ErrTransient classifies a transport-level failure (RPC timeout, 5xx,
	// connection loss) — always Recoverable at the agent layer.
	ErrTransient = errors.New("chainadapter: transient error")

	// ErrLogical classifies a malformed response, signature recovery
	// mismatch, or out-of-range value — Unrecoverable at the agent layer.
	ErrLogical = errors.New("chainadapter: logical error")

	// ErrHomeFailed names the home contract's Failed state. No adapter in
	// this module returns it; callers detect a failed home by reading
	// State().
	ErrHomeFailed = errors.New("chainadapter: home is in failed state")
)
