// Package relayer implements the relayer agent: for one (home, replica)
// pair it watches for a new signed update extending the replica's
// committed root and submits it. Submission runs under a per-replica
// single-flight guard so a slow-confirming submission is never
// duplicated by the next tick.
package relayer
