package monitor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/pipeline"
	"github.com/nomadprotocol/agents/pkg/types"
)

// HomeSource names one home for E2ELatency: Network is this home's own
// label, DomainToNetwork maps every destination domain this home dispatches
// to onto the replica network name that serves it (destinations this home
// dispatches to but that are not configured to be monitored are skipped,
// matching the original's "dispatch to un-monitored network" trace path).
type HomeSource struct {
	Network         string
	Home            chainadapter.Home
	DomainToNetwork map[uint32]string
}

// ReplicaSource names one replica for E2ELatency: ReplicaOf is the home
// network it mirrors.
type ReplicaSource struct {
	Network   string
	ReplicaOf string
	Replica   chainadapter.Replica
}

// E2ELatencyConfig parameterizes one E2ELatency instance.
type E2ELatencyConfig struct {
	ChunkSize       uint64
	IdleInterval    time.Duration
	DeploymentBlock uint64
}

// E2ELatency tracks end-to-end dispatch-to-process latency across the
// whole monitored network, keyed by (home, destination, message_hash).
// Grounded on original_source/agents/monitor/src/steps/e2e.rs.
type E2ELatency struct {
	Config   E2ELatencyConfig
	Homes    []HomeSource
	Replicas []ReplicaSource
	Metrics  E2EMetrics
	Log      *zap.Logger

	started        bool
	homeCursors    map[string]uint64
	replicaCursors map[string]uint64

	// dispatches[home][destination][messageHash] = observedAt
	dispatches map[string]map[string]map[types.Hash]time.Time
	// processes[replicaOf][messageHash] = observedAt
	processes map[string]map[types.Hash]time.Time
}

func (e *E2ELatency) Name() string { return "monitor-e2e" }

func (e *E2ELatency) Step(ctx context.Context) pipeline.Outcome {
	if !e.started {
		e.homeCursors = make(map[string]uint64, len(e.Homes))
		for _, h := range e.Homes {
			e.homeCursors[h.Network] = e.Config.DeploymentBlock
		}
		e.replicaCursors = make(map[string]uint64, len(e.Replicas))
		for _, r := range e.Replicas {
			e.replicaCursors[r.Network] = e.Config.DeploymentBlock
		}
		e.dispatches = make(map[string]map[string]map[types.Hash]time.Time)
		e.processes = make(map[string]map[types.Hash]time.Time)
		e.started = true
	}

	for {
		select {
		case <-ctx.Done():
			return pipeline.Cancelled()
		default:
		}

		progressed := false

		for _, h := range e.Homes {
			advanced, outcome := e.pollHome(ctx, h)
			if outcome != nil {
				return *outcome
			}
			progressed = progressed || advanced
		}

		for _, r := range e.Replicas {
			advanced, outcome := e.pollReplica(ctx, r)
			if outcome != nil {
				return *outcome
			}
			progressed = progressed || advanced
		}

		if !progressed {
			if sleepIdle(ctx, e.Config.IdleInterval) {
				return pipeline.Cancelled()
			}
		}
	}
}

func (e *E2ELatency) pollHome(ctx context.Context, h HomeSource) (bool, *pipeline.Outcome) {
	cursor := e.homeCursors[h.Network]
	tip, err := h.Home.TipBlock(ctx)
	if err != nil {
		o := classifyAdapterError(fmt.Sprintf("monitor e2e: home %s tip block", h.Network), err)
		return false, &o
	}
	if tip <= cursor {
		return false, nil
	}
	to := chunkEnd(cursor, e.Config.ChunkSize, tip)
	events, err := h.Home.FetchDispatches(ctx, cursor+1, to)
	if err != nil {
		o := classifyAdapterError(fmt.Sprintf("monitor e2e: fetch dispatches [%d,%d] on %s", cursor+1, to, h.Network), err)
		return false, &o
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].IntraBlockIndex < events[j].IntraBlockIndex
	})
	for _, ev := range events {
		destination, ok := h.DomainToNetwork[ev.Message.Message.DestinationDomain]
		if !ok {
			continue
		}
		e.recordDispatch(h.Network, destination, ev.Message.Message.Leaf())
	}
	e.homeCursors[h.Network] = to
	return len(events) > 0, nil
}

func (e *E2ELatency) pollReplica(ctx context.Context, r ReplicaSource) (bool, *pipeline.Outcome) {
	cursor := e.replicaCursors[r.Network]
	tip, err := r.Replica.TipBlock(ctx)
	if err != nil {
		o := classifyAdapterError(fmt.Sprintf("monitor e2e: replica %s tip block", r.Network), err)
		return false, &o
	}
	if tip <= cursor {
		return false, nil
	}
	to := chunkEnd(cursor, e.Config.ChunkSize, tip)
	events, err := r.Replica.FetchProcesses(ctx, cursor+1, to)
	if err != nil {
		o := classifyAdapterError(fmt.Sprintf("monitor e2e: fetch processes [%d,%d] on %s", cursor+1, to, r.Network), err)
		return false, &o
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].IntraBlockIndex < events[j].IntraBlockIndex
	})
	for _, ev := range events {
		e.recordProcess(r.Network, r.ReplicaOf, ev.Leaf)
	}
	e.replicaCursors[r.Network] = to
	return len(events) > 0, nil
}

func (e *E2ELatency) recordDispatch(home, destination string, msgHash types.Hash) {
	if byDest, ok := e.processes[home]; ok {
		if _, ok := byDest[msgHash]; ok {
			delete(byDest, msgHash)
			e.Metrics.Timers.WithLabelValues(home, destination).Observe(0)
			return
		}
	}
	if e.dispatches[home] == nil {
		e.dispatches[home] = make(map[string]map[types.Hash]time.Time)
	}
	if e.dispatches[home][destination] == nil {
		e.dispatches[home][destination] = make(map[types.Hash]time.Time)
	}
	e.dispatches[home][destination][msgHash] = time.Now()
	e.Metrics.Gauges.WithLabelValues(home, destination).Inc()
}

func (e *E2ELatency) recordProcess(network, replicaOf string, msgHash types.Hash) {
	now := time.Now()
	if byDest, ok := e.dispatches[replicaOf]; ok {
		if started, ok := byDest[network][msgHash]; ok {
			delete(byDest[network], msgHash)
			e.Metrics.Timers.WithLabelValues(replicaOf, network).Observe(now.Sub(started).Seconds())
			e.Metrics.Gauges.WithLabelValues(replicaOf, network).Dec()
			return
		}
	}
	if e.processes[replicaOf] == nil {
		e.processes[replicaOf] = make(map[types.Hash]time.Time)
	}
	e.processes[replicaOf][msgHash] = now
}
