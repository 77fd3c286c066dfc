package producer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

// SubmitterConfig parameterizes the Submitter task.
type SubmitterConfig struct {
	Entity string
	// PollInterval is how often Submitter re-checks home.CommittedRoot
	// when nothing was found under produced_update.
	PollInterval time.Duration
	// FinalityWait is how long Submitter waits after a successful
	// submission before re-checking, giving the just-submitted update time
	// to land. It is a plain duration; the agent binary sets it to the
	// producer's interval, since the network config has no finality-block
	// or block-time setting to derive it from.
	FinalityWait time.Duration
}

// Submitter is the submit task: it polls produced_update[home.committed_root()]
// and, when a locally-produced update is found there, submits it to the
// home adapter. Split from Producer per spec section 4.F.1 so attestation
// generation (cheap, local) is decoupled from on-chain submission
// (latency-bound).
type Submitter struct {
	Config SubmitterConfig
	DB     *index.DB
	Home   chainadapter.Home
	Log    *zap.Logger
}

func (s *Submitter) Name() string { return "producer-submit:" + s.Config.Entity }

func (s *Submitter) Step(ctx context.Context) pipeline.Outcome {
	for {
		select {
		case <-ctx.Done():
			return pipeline.Cancelled()
		default:
		}

		committed, err := s.Home.CommittedRoot(ctx)
		if err != nil {
			return classifyAdapterError("producer submit: committed root", err)
		}

		su, err := s.DB.LookupProducedUpdate(s.Config.Entity, committed)
		if err == index.ErrNotFound {
			if sleepIdle(ctx, s.Config.PollInterval) {
				return pipeline.Cancelled()
			}
			continue
		}
		if err != nil {
			return pipeline.Recoverable(fmt.Errorf("producer submit: lookup produced update: %w", err))
		}

		if _, err := s.Home.SubmitUpdate(ctx, su); err != nil {
			return classifyAdapterError("producer submit: submit update", err)
		}

		if sleepIdle(ctx, s.Config.FinalityWait) {
			return pipeline.Cancelled()
		}
	}
}

// sleepIdle waits interval or until ctx is cancelled, reporting which
// happened.
func sleepIdle(ctx context.Context, interval time.Duration) (cancelled bool) {
	if interval <= 0 {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	case <-time.After(interval):
		return false
	}
}
