package pipeline

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RestartInterval is the base sleep before respawning a Recoverable step,
// jittered by RestartJitter in either direction. It is a var, not a const,
// so tests can shrink it instead of waiting out real restart sleeps.
var RestartInterval = 15 * time.Second

// RestartJitter is the +/- fraction applied to RestartInterval.
const RestartJitter = 0.15

func jitteredSleep(base time.Duration, jitter float64) time.Duration {
	delta := (rand.Float64()*2 - 1) * jitter
	return time.Duration(float64(base) * (1 + delta))
}

// RunUntilPanic repeatedly invokes step.Step until it returns anything
// other than Recoverable. A Recoverable outcome sleeps a jittered interval
// and calls Step again on the same value, so the step's owned state
// (channels, accumulator, counters) survives the restart. Unrecoverable
// and Cancelled outcomes stop the loop and return. A panic inside Step is
// recovered just long enough to log, then re-raised — per spec section
// 4.E a panic is never handled by the task itself, only observed on the
// way up to terminate the process.
func RunUntilPanic(ctx context.Context, log *zap.Logger, step ProcessStep) {
	name := step.Name()
	for {
		outcome := invoke(ctx, log, step)

		switch outcome.Kind {
		case KindRecoverable:
			log.Warn("step recoverable, restarting", zap.String("step", name), zap.Error(outcome.Reason))
			sleep := jitteredSleep(RestartInterval, RestartJitter)
			select {
			case <-ctx.Done():
				log.Info("step cancelled during restart sleep", zap.String("step", name))
				return
			case <-time.After(sleep):
			}
			continue

		case KindUnrecoverable:
			if outcome.WorthLogging {
				log.Error("step unrecoverable", zap.String("step", name), zap.Error(outcome.Reason))
			} else {
				log.Info("step unrecoverable, exiting", zap.String("step", name), zap.Error(outcome.Reason))
			}
			return

		case KindCancelled:
			log.Info("step cancelled", zap.String("step", name))
			return
		}
	}
}

// invoke runs one Step call, converting a panic into a re-raised panic
// after logging — it never converts a panic into an Outcome.
func invoke(ctx context.Context, log *zap.Logger, step ProcessStep) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("step panicked", zap.String("step", step.Name()), zap.Any("panic", r))
			panic(r)
		}
	}()
	return step.Step(ctx)
}
