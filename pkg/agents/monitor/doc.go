// Package monitor implements the monitor agent: a read-only observer that
// ingests dispatch, update, relay, and process events directly from every
// configured chain adapter and computes pipeline latency metrics, without
// ever writing to chain or to the shared Index.
//
// Grounded on original_source/agents/monitor/src/steps/*.rs's per-concern
// file split. The original fans live chain-event subscriptions into
// per-task mpsc channels ("faucets"); this port instead has each
// ProcessStep poll its source adapters directly in TipBlock-bounded
// chunks, the same polling idiom pkg/contractsync uses, since this module
// has no separate live-subscription fan-out layer. Five latency
// computations, five files:
//
//   - between.go   — BetweenEvents: inter-arrival time and block gap for
//     one (network, event kind).
//   - dispatchwait.go — DispatchWait: dispatch-to-update latency on one
//     home.
//   - updatewait.go   — UpdateWait: update-to-relay latency, keyed by
//     new_root, across one home and its replicas.
//   - relaywait.go    — RelayWait: relay-to-process latency for one
//     (home, replica) pair.
//   - e2e.go          — E2ELatency: end-to-end dispatch-to-process
//     latency, keyed by (origin, destination, message_hash).
//
// Correctness here is weaker than the agents': metric values may be
// approximate across restarts, but ordering within one run is monotone
// and no event is double-counted within one run.
package monitor
