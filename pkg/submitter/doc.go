// Package submitter implements the Chain Submitter: it accepts an
// abstract transaction intent (a contract address and already-packed
// calldata) and delivers one TxOutcome or a typed submission error,
// hiding whichever confirmation-polling strategy its variant uses behind
// that single call.
//
// Two variants: Direct signs and broadcasts locally, then polls for a
// receipt; Relay hands the payload to an external relay service and polls
// its task-status endpoint until the task reaches a terminal execution
// state. Chain Adapter bindings (pkg/chainadapter/evmadapter) depend on a
// Submitter rather than embedding their own signing and confirmation
// logic, so the same adapter code works against either variant.
package submitter
