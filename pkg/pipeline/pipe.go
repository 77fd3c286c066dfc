package pipeline

import "context"

// Observer is an optional hook a Pipe invokes for every value that flows
// through it, used by the monitor agent to derive metrics from a stream
// without the transformer itself needing to know about metrics.
type Observer[T any] func(T)

// Pipe connects an inbound receiver to an outbound sender through a pure
// transform function, so transformer tasks can be written as T -> T
// streaming functions while the fabric owns the channel endpoints.
type Pipe[T any] struct {
	In       *Chan[T]
	Out      *Chan[T]
	Observer Observer[T]
}

// NewPipe creates a Pipe with fresh unbuffered in/out channels.
func NewPipe[T any]() *Pipe[T] {
	return &Pipe[T]{In: NewChan[T](0), Out: NewChan[T](0)}
}

// Run drains In, applies transform, invokes Observer if set, and forwards
// to Out, until In closes, Out breaks, or ctx is cancelled. It returns an
// Outcome suitable for a ProcessStep.Step implementation to return
// directly.
func (p *Pipe[T]) Run(ctx context.Context, transform func(T) T) Outcome {
	for {
		select {
		case <-ctx.Done():
			return Cancelled()
		case v, ok := <-p.In.Raw():
			if !ok {
				return Unrecoverable(ErrChannelClosed, false)
			}
			out := transform(v)
			if p.Observer != nil {
				p.Observer(out)
			}
			if err := p.Out.Send(out); err != nil {
				return Unrecoverable(err, false)
			}
		}
	}
}
