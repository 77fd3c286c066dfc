package contractsync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/index"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

// MessageSyncerConfig parameterizes one MessageSyncer instance. There is
// no Mode field: message sync is always Lagged, because leaf_by_index
// must stay dense and strictly in order (invariant I3), and a tip-chasing
// rescan could otherwise insert a leaf out of sequence.
type MessageSyncerConfig struct {
	Entity          string
	ChunkSize       uint64
	IdleInterval    time.Duration
	DeploymentBlock uint64
	FinalityLag     uint64
}

// MessageSyncer is the pipeline.ProcessStep driving message (dispatch)
// sync for one contract.
type MessageSyncer struct {
	Config  MessageSyncerConfig
	DB      *index.DB
	Indexer chainadapter.Indexer
	Log     *zap.Logger
}

func (s *MessageSyncer) Name() string { return "message-sync:" + s.Config.Entity }

// Step runs message sync's loop until an adapter or Index error occurs, or
// ctx is cancelled.
func (s *MessageSyncer) Step(ctx context.Context) pipeline.Outcome {
	from, ok, err := s.DB.GetTipBlock(s.Config.Entity, index.TipBlockMessages)
	if err != nil {
		return pipeline.Recoverable(fmt.Errorf("message sync: load tip block: %w", err))
	}
	if !ok {
		from = s.Config.DeploymentBlock
	}

	for {
		select {
		case <-ctx.Done():
			return pipeline.Cancelled()
		default:
		}

		tip, err := s.Indexer.TipBlock(ctx)
		if err != nil {
			return pipeline.Recoverable(fmt.Errorf("message sync: tip block: %w", err))
		}
		effectiveTip := subLag(tip, s.Config.FinalityLag)

		if effectiveTip <= from {
			if sleepIdle(ctx, s.Config.IdleInterval) {
				return pipeline.Cancelled()
			}
			continue
		}

		to := chunkEnd(from, s.Config.ChunkSize, effectiveTip)
		events, err := s.Indexer.FetchDispatches(ctx, from, to)
		if err != nil {
			return pipeline.Recoverable(fmt.Errorf("message sync: fetch dispatches [%d,%d]: %w", from, to, err))
		}
		sort.Slice(events, func(i, j int) bool {
			if events[i].BlockNumber != events[j].BlockNumber {
				return events[i].BlockNumber < events[j].BlockNumber
			}
			if events[i].IntraBlockIndex != events[j].IntraBlockIndex {
				return events[i].IntraBlockIndex < events[j].IntraBlockIndex
			}
			return events[i].Message.LeafIndex < events[j].Message.LeafIndex
		})

		for _, ev := range events {
			if err := s.DB.StoreMessage(s.Config.Entity, ev.Message); err != nil {
				return pipeline.Recoverable(fmt.Errorf("message sync: store message leaf_index=%d: %w", ev.Message.LeafIndex, err))
			}
		}

		if err := s.DB.SetTipBlock(s.Config.Entity, index.TipBlockMessages, to); err != nil {
			return pipeline.Recoverable(fmt.Errorf("message sync: advance tip block: %w", err))
		}
		from = to
	}
}
