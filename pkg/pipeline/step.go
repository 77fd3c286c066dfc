package pipeline

import "context"

// Kind discriminates the terminal states a ProcessStep can end in.
type Kind int

const (
	// KindRecoverable means the step should be respawned with its state
	// intact after a jittered backoff sleep.
	KindRecoverable Kind = iota
	// KindUnrecoverable means this task shuts down permanently; peers
	// continue.
	KindUnrecoverable
	// KindCancelled means the step was cancelled externally; terminal.
	KindCancelled
)

// Outcome is the result of one ProcessStep invocation.
type Outcome struct {
	Kind Kind

	// Reason is set for Recoverable and Unrecoverable outcomes.
	Reason error

	// WorthLogging marks an Unrecoverable outcome that indicates a serious
	// local fault (e.g. a producer conflict) worth surfacing loudly rather
	// than treating as routine shutdown.
	WorthLogging bool
}

// Recoverable builds a Recoverable outcome.
func Recoverable(reason error) Outcome {
	return Outcome{Kind: KindRecoverable, Reason: reason}
}

// Unrecoverable builds an Unrecoverable outcome.
func Unrecoverable(reason error, worthLogging bool) Outcome {
	return Outcome{Kind: KindUnrecoverable, Reason: reason, WorthLogging: worthLogging}
}

// Cancelled builds a Cancelled outcome.
func Cancelled() Outcome {
	return Outcome{Kind: KindCancelled}
}

// ProcessStep is a named, restartable operation. Step runs the step's loop
// until it hits an error or ctx is cancelled, and returns an Outcome
// describing what should happen next. A ProcessStep implementation
// owns all of its state (channels, counters, adapter handles) as struct
// fields so that respawning the same value after a Recoverable outcome
// resumes exactly where it left off.
type ProcessStep interface {
	Name() string
	Step(ctx context.Context) Outcome
}
