package main

import (
	"context"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nomadprotocol/agents/pkg/pipeline"
)

// runSteps starts the metrics server and supervises every step under
// pipeline.RunUntilPanic concurrently, returning once SIGINT/SIGTERM
// arrives or ctx is otherwise cancelled. RunUntilPanic itself never
// returns an error; it blocks until its step is Cancelled or
// Unrecoverable, so this only unblocks on shutdown.
func runSteps(ctx context.Context, a *app, steps []pipeline.ProcessStep) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return a.Metrics.Run(egCtx) })
	for _, step := range steps {
		step := step
		eg.Go(func() error {
			pipeline.RunUntilPanic(egCtx, a.Log, step)
			return nil
		})
	}
	return eg.Wait()
}
