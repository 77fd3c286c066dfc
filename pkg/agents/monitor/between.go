package monitor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

// EventMeta is the block-position metadata every monitor event carries;
// BetweenEvents only needs ordering, not payload.
type EventMeta struct {
	BlockNumber     uint64
	IntraBlockIndex uint32
}

// FetchRange retrieves events in [from, to], sorted by (block_number,
// intra_block_index) ascending, from one (chain, contract, event kind)
// source.
type FetchRange func(ctx context.Context, from, to uint64) ([]EventMeta, error)

// BetweenEventsConfig parameterizes one BetweenEvents instance.
type BetweenEventsConfig struct {
	Network         string
	Event           string
	ChunkSize       uint64
	IdleInterval    time.Duration
	DeploymentBlock uint64
}

// BetweenEvents tracks wall-clock and block-number latency between
// consecutive events of one kind on one network, per spec section
// 4.F.4's first latency computation. Grounded on
// original_source/agents/monitor/src/steps/between.rs.
type BetweenEvents struct {
	Config  BetweenEventsConfig
	Source  chainadapter.Indexer
	Fetch   FetchRange
	Metrics BetweenMetrics
	Log     *zap.Logger

	cursor      uint64
	started     bool
	lastBlock   uint64
	lastInstant time.Time
}

func (b *BetweenEvents) Name() string {
	return fmt.Sprintf("monitor-between:%s:%s", b.Config.Network, b.Config.Event)
}

func (b *BetweenEvents) Step(ctx context.Context) pipeline.Outcome {
	if !b.started {
		b.cursor = b.Config.DeploymentBlock
		b.started = true
	}

	for {
		select {
		case <-ctx.Done():
			return pipeline.Cancelled()
		default:
		}

		tip, err := b.Source.TipBlock(ctx)
		if err != nil {
			return classifyAdapterError(fmt.Sprintf("monitor between %s/%s: tip block", b.Config.Network, b.Config.Event), err)
		}
		if tip <= b.cursor {
			if sleepIdle(ctx, b.Config.IdleInterval) {
				return pipeline.Cancelled()
			}
			continue
		}

		to := chunkEnd(b.cursor, b.Config.ChunkSize, tip)
		events, err := b.Fetch(ctx, b.cursor+1, to)
		if err != nil {
			return classifyAdapterError(fmt.Sprintf("monitor between %s/%s: fetch [%d,%d]", b.Config.Network, b.Config.Event, b.cursor+1, to), err)
		}
		sort.Slice(events, func(i, j int) bool {
			if events[i].BlockNumber != events[j].BlockNumber {
				return events[i].BlockNumber < events[j].BlockNumber
			}
			return events[i].IntraBlockIndex < events[j].IntraBlockIndex
		})

		for _, ev := range events {
			b.observe(ev)
		}
		b.cursor = to
	}
}

func (b *BetweenEvents) observe(ev EventMeta) {
	now := time.Now()
	if !b.lastInstant.IsZero() {
		b.Metrics.WallclockLatency.Observe(now.Sub(b.lastInstant).Seconds())
	}
	if b.lastBlock != 0 && ev.BlockNumber >= b.lastBlock {
		b.Metrics.BlockLatency.Observe(float64(ev.BlockNumber - b.lastBlock))
	}
	b.lastInstant = now
	b.lastBlock = ev.BlockNumber
	b.Metrics.Count.Inc()
}
