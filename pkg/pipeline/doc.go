// Package pipeline provides the task supervision and channel fabric that
// every long-running agent loop in this module is built on: a ProcessStep
// contract with a Recoverable/Unrecoverable/Cancelled outcome, a
// supervisor (RunUntilPanic) that restarts Recoverable steps with jittered
// backoff while preserving their owned state and logs and re-raises a
// step's panic, and typed channel wrappers that classify
// closed-channel failures as Unrecoverable so topology failures cascade to
// orderly shutdown instead of silent stalls.
package pipeline
