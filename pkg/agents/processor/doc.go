// Package processor implements the processor agent: for one replica it
// walks dispatched messages in nonce order, waits for each to become
// provable against an accepted root, and submits prove-and-process.
//
// Two tasks share one Index entity (the home network's, where its
// messages are mirrored), grounded on the
// message-sync/prover-sync split named in spec section 4.F.3:
//
//   - ProverSync walks leaf_by_index ascending, ingests each leaf into a
//     full accumulator, and stores the resulting inclusion proof under
//     proof_by_index. It may lag message-sync; the Processor tolerates
//     "proof not yet available" by polling.
//   - Processor advances processor_nonce strictly in nonce order. A
//     missing nonce blocks that destination's progress until contract
//     sync (or, for the proof, ProverSync) fills the gap — the processor
//     never reorders.
package processor
