// Package producer implements the updater agent: it signs attestations
// advancing the home's committed root and submits them on chain.
//
// The work is split across three independently-restartable
// pipeline.ProcessStep tasks, grounded on the tree-sync/signing split in
// the original implementation's agents/updater/src/produce.rs:
//
//   - AccumulatorSyncer mirrors the home's dispatch tree locally by
//     walking leaf_by_index in order (the tree-sync sub-task).
//   - Producer compares the mirrored root against the latest known
//     committed root and, on divergence, signs and stores a new
//     produced_update (attestation generation).
//   - Submitter polls produced_update[home.committed_root()] and submits
//     whatever is found to the home adapter (on-chain submission).
//
// Splitting submission from signing means a slow or failing chain
// connection never blocks attestation generation, and vice versa.
package producer
