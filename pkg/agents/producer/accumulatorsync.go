package producer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

// AccumulatorSyncer is the tree-sync sub-task: it walks leaf_by_index
// ascending and ingests each leaf into the shared Accumulator in order,
// so Producer always has an up-to-date mirrored root to compare against
// the latest known committed root. Grounded on the HomeReplicaSyncer-
// shaped loop in the original implementation's produce.rs, split out as
// its own pipeline.ProcessStep so it restarts independently of the
// signing loop.
type AccumulatorSyncer struct {
	Entity string
	DB     *index.DB
	Tree   *Accumulator
	Log    *zap.Logger

	// Poller configures wait-for-leaf polling; the zero value selects
	// index.DefaultWaitPoller.
	Poller index.WaitPoller
}

func (s *AccumulatorSyncer) Name() string { return "producer-accumulator-sync:" + s.Entity }

func (s *AccumulatorSyncer) Step(ctx context.Context) pipeline.Outcome {
	poller := s.Poller
	if poller == (index.WaitPoller{}) {
		poller = index.DefaultWaitPoller
	}

	for {
		next := uint32(s.Tree.Count())
		leaf, err := s.DB.WaitForLeaf(ctx, s.Entity, next, poller)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return pipeline.Cancelled()
			}
			return pipeline.Recoverable(fmt.Errorf("producer accumulator sync: wait for leaf %d: %w", next, err))
		}
		if _, err := s.Tree.Insert(leaf); err != nil {
			return pipeline.Unrecoverable(fmt.Errorf("producer accumulator sync: insert leaf %d: %w", next, err), true)
		}
	}
}
