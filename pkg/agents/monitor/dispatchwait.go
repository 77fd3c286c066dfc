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

// DispatchWaitConfig parameterizes one DispatchWait instance.
type DispatchWaitConfig struct {
	Network         string
	ChunkSize       uint64
	IdleInterval    time.Duration
	DeploymentBlock uint64
}

// pendingDispatch is one dispatch still waiting on its next committed
// update.
type pendingDispatch struct {
	observedAt time.Time
	block      uint64
}

// DispatchWait tracks dispatch-to-update latency on one home: every
// dispatch starts a timer, and every update drains the entire queue of
// pending dispatch timers observed so far. Grounded on
// original_source/agents/monitor/src/steps/dispatch_wait.rs.
//
// Pending timers live only in memory. When Step returns Cancelled, timers
// still queued are dropped without an observation; after a Recoverable
// restart the same value keeps its queue.
type DispatchWait struct {
	Config  DispatchWaitConfig
	Home    chainadapter.Home
	Metrics DispatchWaitMetrics
	Log     *zap.Logger

	started        bool
	dispatchCursor uint64
	updateCursor   uint64
	pending        []pendingDispatch
}

func (d *DispatchWait) Name() string { return "monitor-dispatch-wait:" + d.Config.Network }

func (d *DispatchWait) Step(ctx context.Context) pipeline.Outcome {
	if !d.started {
		d.dispatchCursor = d.Config.DeploymentBlock
		d.updateCursor = d.Config.DeploymentBlock
		d.started = true
	}

	for {
		select {
		case <-ctx.Done():
			return pipeline.Cancelled()
		default:
		}

		tip, err := d.Home.TipBlock(ctx)
		if err != nil {
			return classifyAdapterError(fmt.Sprintf("monitor dispatch wait %s: tip block", d.Config.Network), err)
		}

		progressed := false

		if tip > d.dispatchCursor {
			to := chunkEnd(d.dispatchCursor, d.Config.ChunkSize, tip)
			dispatches, err := d.Home.FetchDispatches(ctx, d.dispatchCursor+1, to)
			if err != nil {
				return classifyAdapterError(fmt.Sprintf("monitor dispatch wait %s: fetch dispatches [%d,%d]", d.Config.Network, d.dispatchCursor+1, to), err)
			}
			sort.Slice(dispatches, func(i, j int) bool {
				if dispatches[i].BlockNumber != dispatches[j].BlockNumber {
					return dispatches[i].BlockNumber < dispatches[j].BlockNumber
				}
				return dispatches[i].IntraBlockIndex < dispatches[j].IntraBlockIndex
			})
			for _, ev := range dispatches {
				d.pending = append(d.pending, pendingDispatch{observedAt: time.Now(), block: ev.BlockNumber})
			}
			if len(dispatches) > 0 {
				d.Metrics.InQueue.Set(float64(len(d.pending)))
				progressed = true
			}
			d.dispatchCursor = to
		}

		if tip > d.updateCursor {
			to := chunkEnd(d.updateCursor, d.Config.ChunkSize, tip)
			updates, err := d.Home.FetchUpdates(ctx, d.updateCursor+1, to)
			if err != nil {
				return classifyAdapterError(fmt.Sprintf("monitor dispatch wait %s: fetch updates [%d,%d]", d.Config.Network, d.updateCursor+1, to), err)
			}
			sort.Slice(updates, func(i, j int) bool {
				if updates[i].BlockNumber != updates[j].BlockNumber {
					return updates[i].BlockNumber < updates[j].BlockNumber
				}
				return updates[i].IntraBlockIndex < updates[j].IntraBlockIndex
			})
			for _, ev := range updates {
				d.drain(ev.BlockNumber)
			}
			if len(updates) > 0 {
				progressed = true
			}
			d.updateCursor = to
		}

		if !progressed {
			if sleepIdle(ctx, d.Config.IdleInterval) {
				return pipeline.Cancelled()
			}
		}
	}
}

// drain observes every pending dispatch against the update seen at
// updateBlock, then empties the queue.
func (d *DispatchWait) drain(updateBlock uint64) {
	if len(d.pending) == 0 {
		return
	}
	now := time.Now()
	for _, p := range d.pending {
		d.Metrics.Timer.Observe(now.Sub(p.observedAt).Seconds())
		if updateBlock >= p.block {
			d.Metrics.Blocks.Observe(float64(updateBlock - p.block))
		}
	}
	d.pending = d.pending[:0]
	d.Metrics.InQueue.Set(0)
}
