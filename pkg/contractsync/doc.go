// Package contractsync drives a chainadapter.Indexer forward in chunked
// block ranges and mirrors its event history into the Persistent Index. It
// owns nothing but a tip-block watermark per sync kind (updates,
// messages): restarting from that watermark after a crash reproduces the
// same Index state, since adapter queries are deterministic over a fixed
// block range.
//
// Update sync and message sync are independent pipeline.ProcessSteps so
// either can restart without disturbing the other. Message sync is always
// conservative (Lagged) because leaf ordering must stay dense and
// in-order; update sync may additionally run TipChasing for lower
// latency, at the cost of periodically rescanning a reorg window behind
// the tip to catch contradicted writes.
package contractsync
