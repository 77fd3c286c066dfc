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

// UpdateWaitConfig parameterizes one UpdateWait instance.
type UpdateWaitConfig struct {
	Network         string
	ChunkSize       uint64
	IdleInterval    time.Duration
	DeploymentBlock uint64
}

// UpdateWait tracks update-to-relay latency, keyed by new_root: one home's
// committed updates against the same update event reappearing on each of
// its replicas. Grounded on
// original_source/agents/monitor/src/steps/update_wait.rs.
type UpdateWait struct {
	Config   UpdateWaitConfig
	Home     chainadapter.Home
	Replicas map[string]chainadapter.Replica
	Metrics  UpdateWaitMetrics
	Log      *zap.Logger

	started      bool
	homeCursor   uint64
	replicaCurs  map[string]uint64
	updates      map[types.Hash]time.Time
	relays       map[types.Hash]map[string]time.Time
}

func (u *UpdateWait) Name() string { return "monitor-update-wait:" + u.Config.Network }

func (u *UpdateWait) Step(ctx context.Context) pipeline.Outcome {
	if !u.started {
		u.homeCursor = u.Config.DeploymentBlock
		u.replicaCurs = make(map[string]uint64, len(u.Replicas))
		for name := range u.Replicas {
			u.replicaCurs[name] = u.Config.DeploymentBlock
		}
		u.updates = make(map[types.Hash]time.Time)
		u.relays = make(map[types.Hash]map[string]time.Time)
		u.started = true
	}

	for {
		select {
		case <-ctx.Done():
			return pipeline.Cancelled()
		default:
		}

		progressed, outcome := u.pollHome(ctx)
		if outcome != nil {
			return *outcome
		}

		for name, replica := range u.Replicas {
			advanced, outcome := u.pollReplica(ctx, name, replica)
			if outcome != nil {
				return *outcome
			}
			progressed = progressed || advanced
		}

		if !progressed {
			if sleepIdle(ctx, u.Config.IdleInterval) {
				return pipeline.Cancelled()
			}
		}
	}
}

func (u *UpdateWait) pollHome(ctx context.Context) (bool, *pipeline.Outcome) {
	tip, err := u.Home.TipBlock(ctx)
	if err != nil {
		o := classifyAdapterError(fmt.Sprintf("monitor update wait %s: home tip block", u.Config.Network), err)
		return false, &o
	}
	if tip <= u.homeCursor {
		return false, nil
	}
	to := chunkEnd(u.homeCursor, u.Config.ChunkSize, tip)
	events, err := u.Home.FetchUpdates(ctx, u.homeCursor+1, to)
	if err != nil {
		o := classifyAdapterError(fmt.Sprintf("monitor update wait %s: fetch home updates [%d,%d]", u.Config.Network, u.homeCursor+1, to), err)
		return false, &o
	}
	sortUpdates(events)
	for _, ev := range events {
		u.handleUpdate(ev.Update.Update.NewRoot)
	}
	u.homeCursor = to
	return len(events) > 0, nil
}

func (u *UpdateWait) pollReplica(ctx context.Context, name string, replica chainadapter.Replica) (bool, *pipeline.Outcome) {
	cursor := u.replicaCurs[name]
	tip, err := replica.TipBlock(ctx)
	if err != nil {
		o := classifyAdapterError(fmt.Sprintf("monitor update wait %s: replica %s tip block", u.Config.Network, name), err)
		return false, &o
	}
	if tip <= cursor {
		return false, nil
	}
	to := chunkEnd(cursor, u.Config.ChunkSize, tip)
	events, err := replica.FetchUpdates(ctx, cursor+1, to)
	if err != nil {
		o := classifyAdapterError(fmt.Sprintf("monitor update wait %s: fetch replica %s updates [%d,%d]", u.Config.Network, name, cursor+1, to), err)
		return false, &o
	}
	sortUpdates(events)
	for _, ev := range events {
		u.handleRelay(name, ev.Update.Update.NewRoot)
	}
	u.replicaCurs[name] = to
	return len(events) > 0, nil
}

func (u *UpdateWait) handleUpdate(root types.Hash) {
	u.updates[root] = time.Now()
	for name := range u.Replicas {
		u.Metrics.Unrelayed.WithLabelValues(name).Inc()
	}
	if relays, ok := u.relays[root]; ok {
		updateTime := u.updates[root]
		for replica, relayTime := range relays {
			u.record(replica, relayTime, updateTime)
		}
		delete(u.relays, root)
	}
}

func (u *UpdateWait) handleRelay(replica string, root types.Hash) {
	now := time.Now()
	if updateTime, ok := u.updates[root]; ok {
		u.record(replica, now, updateTime)
		return
	}
	if u.relays[root] == nil {
		u.relays[root] = make(map[string]time.Time)
	}
	u.relays[root][replica] = now
}

func (u *UpdateWait) record(replica string, relayTime, updateTime time.Time) {
	elapsed := relayTime.Sub(updateTime).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	u.Metrics.Times.WithLabelValues(replica).Observe(elapsed)
	u.Metrics.Unrelayed.WithLabelValues(replica).Dec()
}

func sortUpdates(events []chainadapter.SignedUpdateWithMeta) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}
		return events[i].IntraBlockIndex < events[j].IntraBlockIndex
	})
}
