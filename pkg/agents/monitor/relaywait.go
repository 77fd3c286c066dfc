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

// RelayWaitConfig parameterizes one RelayWait instance.
type RelayWaitConfig struct {
	Network         string // the replica's network
	ReplicaOf       string // the home network this replica mirrors
	Emitter         string // the replica contract's address or name
	ChunkSize       uint64
	IdleInterval    time.Duration
	DeploymentBlock uint64
}

// RelayWait tracks relay-to-process latency for one (home, replica) pair.
// It is deliberately not per-message: like the original, it tracks only
// the most recently observed relay time/block and measures every
// subsequent process event against it. Grounded on
// original_source/agents/monitor/src/steps/relay_wait.rs.
type RelayWait struct {
	Config  RelayWaitConfig
	Replica chainadapter.Replica
	Metrics RelayWaitMetrics
	Log     *zap.Logger

	started       bool
	relayCursor   uint64
	processCursor uint64
	relayInstant  time.Time
	relayBlock    uint64
}

func (r *RelayWait) Name() string {
	return fmt.Sprintf("monitor-relay-wait:%s:%s", r.Config.Network, r.Config.ReplicaOf)
}

func (r *RelayWait) Step(ctx context.Context) pipeline.Outcome {
	if !r.started {
		r.relayCursor = r.Config.DeploymentBlock
		r.processCursor = r.Config.DeploymentBlock
		r.started = true
	}

	for {
		select {
		case <-ctx.Done():
			return pipeline.Cancelled()
		default:
		}

		progressed := false

		tip, err := r.Replica.TipBlock(ctx)
		if err != nil {
			return classifyAdapterError(fmt.Sprintf("monitor relay wait %s: tip block", r.Config.Network), err)
		}

		if tip > r.relayCursor {
			to := chunkEnd(r.relayCursor, r.Config.ChunkSize, tip)
			relays, err := r.Replica.FetchUpdates(ctx, r.relayCursor+1, to)
			if err != nil {
				return classifyAdapterError(fmt.Sprintf("monitor relay wait %s: fetch relays [%d,%d]", r.Config.Network, r.relayCursor+1, to), err)
			}
			sortUpdates(relays)
			for _, ev := range relays {
				r.relayInstant = time.Now()
				r.relayBlock = ev.BlockNumber
			}
			if len(relays) > 0 {
				progressed = true
			}
			r.relayCursor = to
		}

		if tip > r.processCursor {
			to := chunkEnd(r.processCursor, r.Config.ChunkSize, tip)
			processes, err := r.Replica.FetchProcesses(ctx, r.processCursor+1, to)
			if err != nil {
				return classifyAdapterError(fmt.Sprintf("monitor relay wait %s: fetch processes [%d,%d]", r.Config.Network, r.processCursor+1, to), err)
			}
			sort.Slice(processes, func(i, j int) bool {
				if processes[i].BlockNumber != processes[j].BlockNumber {
					return processes[i].BlockNumber < processes[j].BlockNumber
				}
				return processes[i].IntraBlockIndex < processes[j].IntraBlockIndex
			})
			for _, ev := range processes {
				r.observeProcess(ev.BlockNumber)
			}
			if len(processes) > 0 {
				progressed = true
			}
			r.processCursor = to
		}

		if !progressed {
			if sleepIdle(ctx, r.Config.IdleInterval) {
				return pipeline.Cancelled()
			}
		}
	}
}

func (r *RelayWait) observeProcess(processBlock uint64) {
	if r.relayInstant.IsZero() {
		return
	}
	elapsedMS := float64(time.Since(r.relayInstant).Milliseconds())
	r.Metrics.Timer.Observe(elapsedMS)
	if processBlock >= r.relayBlock {
		r.Metrics.Blocks.Observe(float64(processBlock - r.relayBlock))
	}
}
