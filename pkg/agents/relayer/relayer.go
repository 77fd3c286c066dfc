package relayer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

// Config parameterizes one Relayer instance.
type Config struct {
	Entity   string // the Index entity update_by_prev is read from (the home's entity)
	Interval time.Duration
}

// Relayer watches one (home, replica) pair: on each tick it checks whether
// a signed update extends the replica's current committed root and, if
// so and no submission is already in flight, submits it.
type Relayer struct {
	Config  Config
	DB      *index.DB
	Home    chainadapter.Home
	Replica chainadapter.Replica
	Log     *zap.Logger

	inFlight atomic.Bool
	errCh    chan error
}

func (r *Relayer) Name() string { return "relayer:" + r.Config.Entity }

func (r *Relayer) Step(ctx context.Context) pipeline.Outcome {
	if r.errCh == nil {
		r.errCh = make(chan error, 1)
	}

	ticker := time.NewTicker(r.Config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return pipeline.Cancelled()
		case err := <-r.errCh:
			return classifyAdapterError("relayer: submit update", err)
		case <-ticker.C:
			if outcome := r.tick(ctx); outcome != nil {
				return *outcome
			}
		}
	}
}

func (r *Relayer) tick(ctx context.Context) *pipeline.Outcome {
	homeUpdater, err := r.Home.Updater(ctx)
	if err != nil {
		o := classifyAdapterError("relayer: home updater", err)
		return &o
	}
	replicaUpdater, err := r.Replica.Updater(ctx)
	if err != nil {
		o := classifyAdapterError("relayer: replica updater", err)
		return &o
	}
	if homeUpdater != replicaUpdater {
		o := pipeline.Unrecoverable(
			fmt.Errorf("relayer: %w: home updater %x != replica updater %x", chainadapter.ErrLogical, homeUpdater, replicaUpdater),
			true,
		)
		return &o
	}

	old, err := r.Replica.CommittedRoot(ctx)
	if err != nil {
		o := classifyAdapterError("relayer: replica committed root", err)
		return &o
	}

	signed, err := r.DB.LookupUpdateByPrev(r.Config.Entity, old)
	if err == index.ErrNotFound {
		return nil
	}
	if err != nil {
		o := pipeline.Recoverable(fmt.Errorf("relayer: lookup update by prev: %w", err))
		return &o
	}

	if !r.inFlight.CompareAndSwap(false, true) {
		return nil // a previous submission is still in flight
	}

	go func() {
		defer r.inFlight.Store(false)
		if _, err := r.Replica.SubmitUpdate(ctx, signed); err != nil {
			select {
			case r.errCh <- err:
			case <-ctx.Done():
			}
		}
	}()
	return nil
}
