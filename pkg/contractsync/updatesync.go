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

// SyncMode selects how update sync trades latency against reorg risk.
type SyncMode int

const (
	// Lagged applies the finality lag to both ends of every range read —
	// simple and conservative.
	Lagged SyncMode = iota
	// TipChasing reads up to the raw tip for low latency, and
	// periodically rescans a ReorgWindow behind the tip to catch and
	// report contradicted writes.
	TipChasing
)

// UpdateSyncerConfig parameterizes one UpdateSyncer instance.
type UpdateSyncerConfig struct {
	Entity          string
	ChunkSize       uint64
	IdleInterval    time.Duration
	DeploymentBlock uint64
	FinalityLag     uint64
	Mode            SyncMode
	// ReorgWindow is how far behind the tip TipChasing rescans; ignored
	// in Lagged mode.
	ReorgWindow uint64
}

// UpdateSyncer is the pipeline.ProcessStep driving update sync for one
// contract.
type UpdateSyncer struct {
	Config  UpdateSyncerConfig
	DB      *index.DB
	Indexer chainadapter.Indexer
	Log     *zap.Logger

	rescannedUpTo uint64 // high-water mark of the last TipChasing rescan
}

func (s *UpdateSyncer) Name() string { return "update-sync:" + s.Config.Entity }

// Step runs update sync's loop until an adapter or Index error occurs, or
// ctx is cancelled.
func (s *UpdateSyncer) Step(ctx context.Context) pipeline.Outcome {
	from, ok, err := s.DB.GetTipBlock(s.Config.Entity, index.TipBlockUpdates)
	if err != nil {
		return pipeline.Recoverable(fmt.Errorf("update sync: load tip block: %w", err))
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
			return pipeline.Recoverable(fmt.Errorf("update sync: tip block: %w", err))
		}

		effectiveTip := tip
		if s.Config.Mode == Lagged {
			effectiveTip = subLag(tip, s.Config.FinalityLag)
		}

		if s.Config.Mode == TipChasing {
			if outcome, rescanned := s.maybeRescan(ctx, tip); rescanned {
				if outcome != nil {
					return *outcome
				}
			}
		}

		if effectiveTip <= from {
			if sleepIdle(ctx, s.Config.IdleInterval) {
				return pipeline.Cancelled()
			}
			continue
		}

		to := chunkEnd(from, s.Config.ChunkSize, effectiveTip)
		events, err := s.Indexer.FetchUpdates(ctx, from, to)
		if err != nil {
			return pipeline.Recoverable(fmt.Errorf("update sync: fetch updates [%d,%d]: %w", from, to, err))
		}
		sort.Slice(events, func(i, j int) bool {
			if events[i].BlockNumber != events[j].BlockNumber {
				return events[i].BlockNumber < events[j].BlockNumber
			}
			return events[i].IntraBlockIndex < events[j].IntraBlockIndex
		})

		for _, ev := range events {
			if outcome := s.writeUpdate(ev); outcome != nil {
				return *outcome
			}
		}

		if err := s.DB.SetTipBlock(s.Config.Entity, index.TipBlockUpdates, to); err != nil {
			return pipeline.Recoverable(fmt.Errorf("update sync: advance tip block: %w", err))
		}
		from = to
	}
}

// maybeRescan re-fetches a ReorgWindow behind tip and checks every update
// against what is already stored, surfacing a contradiction instead of
// silently overwriting it. Returns (nil, false) when no rescan was due.
func (s *UpdateSyncer) maybeRescan(ctx context.Context, tip uint64) (*pipeline.Outcome, bool) {
	if tip < s.Config.ReorgWindow || tip <= s.rescannedUpTo {
		return nil, false
	}
	windowStart := subLag(tip, s.Config.ReorgWindow)
	events, err := s.Indexer.FetchUpdates(ctx, windowStart, tip)
	if err != nil {
		o := pipeline.Recoverable(fmt.Errorf("update sync: rescan fetch [%d,%d]: %w", windowStart, tip, err))
		return &o, true
	}
	for _, ev := range events {
		if outcome := s.writeUpdate(ev); outcome != nil {
			return outcome, true
		}
	}
	s.rescannedUpTo = tip
	return nil, true
}

// writeUpdate stores ev, comparing against any existing record for the
// same previous root so a tip-chasing rescan that discovers a reorg is
// reported as a hard contradiction rather than silently resolved.
func (s *UpdateSyncer) writeUpdate(ev chainadapter.SignedUpdateWithMeta) *pipeline.Outcome {
	existing, err := s.DB.LookupUpdateByPrev(s.Config.Entity, ev.Update.Update.PreviousRoot)
	if err == nil && existing.Update.NewRoot != ev.Update.Update.NewRoot {
		o := pipeline.Unrecoverable(
			fmt.Errorf("update sync: %w: previous_root=%s existing_new=%s observed_new=%s",
				index.ErrReorgContradiction, ev.Update.Update.PreviousRoot, existing.Update.NewRoot, ev.Update.Update.NewRoot),
			true,
		)
		return &o
	}
	if err != nil && err != index.ErrNotFound {
		o := pipeline.Recoverable(fmt.Errorf("update sync: lookup existing update: %w", err))
		return &o
	}

	meta := &index.UpdateMeta{BlockNumber: ev.BlockNumber, Timestamp: ev.Timestamp}
	if err := s.DB.StoreUpdate(s.Config.Entity, ev.Update, meta); err != nil {
		o := pipeline.Recoverable(fmt.Errorf("update sync: store update: %w", err))
		return &o
	}
	return nil
}
