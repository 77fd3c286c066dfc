package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nomadprotocol/agents/pkg/agents/monitor"
	"github.com/nomadprotocol/agents/pkg/chainadapter"
	"github.com/nomadprotocol/agents/pkg/config"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

func newMonitorCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run the monitor: report dispatch/relay/process latency across every configured network",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer a.DB.Close()
			steps, err := monitorSteps(a)
			if err != nil {
				return err
			}
			return runSteps(cmd.Context(), a, steps)
		},
	}
}

// monitorSteps builds the monitor agent's pipeline.ProcessSteps: a
// BetweenEvents/DispatchWait/UpdateWait set per home, a RelayWait per
// replica, and one shared E2ELatency step across every configured
// home/replica pair.
func monitorSteps(a *app) ([]pipeline.ProcessStep, error) {
	if a.Config.Monitor == nil {
		return nil, fmt.Errorf("agent: monitor: config has no monitor section")
	}
	mc := *a.Config.Monitor

	d := newDialer()
	homes := make(map[string]chainadapter.Home, len(mc.Homes))
	homeCfgs := make(map[string]config.NetworkConfig, len(mc.Homes))
	for _, name := range mc.Homes {
		netCfg, ok := a.Config.Networks[name]
		if !ok {
			return nil, fmt.Errorf("agent: monitor: network %q not configured", name)
		}
		home, err := buildHome(d, name, netCfg, a.Secrets, false)
		if err != nil {
			return nil, fmt.Errorf("agent: monitor: %w", err)
		}
		homes[name] = home
		homeCfgs[name] = netCfg
	}

	replicas := make(map[string]chainadapter.Replica, len(mc.Replicas))
	replicaCfgs := make(map[string]config.NetworkConfig, len(mc.Replicas))
	replicasByHome := make(map[string][]string, len(mc.Homes))
	for _, mr := range mc.Replicas {
		netCfg, ok := a.Config.Networks[mr.Network]
		if !ok {
			return nil, fmt.Errorf("agent: monitor: network %q not configured", mr.Network)
		}
		homeCfg, ok := homeCfgs[mr.ReplicaOf]
		if !ok {
			return nil, fmt.Errorf("agent: monitor: replica %q names unconfigured home %q", mr.Network, mr.ReplicaOf)
		}
		replica, err := buildReplica(d, mr.Network, netCfg, homeCfg.Domain, a.Secrets, false)
		if err != nil {
			return nil, fmt.Errorf("agent: monitor: %w", err)
		}
		replicas[mr.Network] = replica
		replicaCfgs[mr.Network] = netCfg
		replicasByHome[mr.ReplicaOf] = append(replicasByHome[mr.ReplicaOf], mr.Network)
	}

	metrics := monitor.NewMetrics(a.Registry)

	var steps []pipeline.ProcessStep

	for _, name := range mc.Homes {
		netCfg := homeCfgs[name]
		home := homes[name]
		idle := mc.IdleInterval()
		chunk := chunkSizeOrDefault(mc.ChunkSize, netCfg.ChunkSize)

		steps = append(steps,
			&monitor.BetweenEvents{
				Config: monitor.BetweenEventsConfig{
					Network: name, Event: "dispatch",
					ChunkSize: chunk, IdleInterval: idle, DeploymentBlock: netCfg.DeploymentBlock,
				},
				Source:  home,
				Fetch:   dispatchFetchRange(home),
				Metrics: metrics.NewBetweenMetrics(name, "dispatch"),
				Log:     a.Log,
			},
			&monitor.BetweenEvents{
				Config: monitor.BetweenEventsConfig{
					Network: name, Event: "update",
					ChunkSize: chunk, IdleInterval: idle, DeploymentBlock: netCfg.DeploymentBlock,
				},
				Source:  home,
				Fetch:   updateFetchRange(home),
				Metrics: metrics.NewBetweenMetrics(name, "update"),
				Log:     a.Log,
			},
			&monitor.DispatchWait{
				Config: monitor.DispatchWaitConfig{
					Network: name, ChunkSize: chunk, IdleInterval: idle, DeploymentBlock: netCfg.DeploymentBlock,
				},
				Home:    home,
				Metrics: metrics.NewDispatchWaitMetrics(name),
				Log:     a.Log,
			},
			&monitor.UpdateWait{
				Config: monitor.UpdateWaitConfig{
					Network: name, ChunkSize: chunk, IdleInterval: idle, DeploymentBlock: netCfg.DeploymentBlock,
				},
				Home:     home,
				Replicas: replicaSubset(replicas, replicasByHome[name]),
				Metrics:  metrics.NewUpdateWaitMetrics(name),
				Log:      a.Log,
			},
		)
	}

	for _, mr := range mc.Replicas {
		netCfg := replicaCfgs[mr.Network]
		chunk := chunkSizeOrDefault(mc.ChunkSize, netCfg.ChunkSize)
		steps = append(steps, &monitor.RelayWait{
			Config: monitor.RelayWaitConfig{
				Network: mr.Network, ReplicaOf: mr.ReplicaOf, Emitter: mr.Network,
				ChunkSize: chunk, IdleInterval: mc.IdleInterval(), DeploymentBlock: netCfg.DeploymentBlock,
			},
			Replica: replicas[mr.Network],
			Metrics: metrics.NewRelayWaitMetrics(mr.Network, mr.ReplicaOf, mr.Network),
			Log:     a.Log,
		})
	}

	if len(mc.Homes) > 0 {
		domainToNetwork := make(map[string]map[uint32]string, len(mc.Homes))
		for _, mr := range mc.Replicas {
			if domainToNetwork[mr.ReplicaOf] == nil {
				domainToNetwork[mr.ReplicaOf] = make(map[uint32]string)
			}
			domainToNetwork[mr.ReplicaOf][replicaCfgs[mr.Network].Domain] = mr.Network
		}

		homeSources := make([]monitor.HomeSource, 0, len(mc.Homes))
		for _, name := range mc.Homes {
			homeSources = append(homeSources, monitor.HomeSource{
				Network: name, Home: homes[name], DomainToNetwork: domainToNetwork[name],
			})
		}
		replicaSources := make([]monitor.ReplicaSource, 0, len(mc.Replicas))
		for _, mr := range mc.Replicas {
			replicaSources = append(replicaSources, monitor.ReplicaSource{
				Network: mr.Network, ReplicaOf: mr.ReplicaOf, Replica: replicas[mr.Network],
			})
		}

		steps = append(steps, &monitor.E2ELatency{
			Config: monitor.E2ELatencyConfig{
				ChunkSize: mc.ChunkSize, IdleInterval: mc.IdleInterval(),
			},
			Homes:    homeSources,
			Replicas: replicaSources,
			Metrics:  metrics.NewE2EMetrics(),
			Log:      a.Log,
		})
	}

	return steps, nil
}

func chunkSizeOrDefault(preferred, fallback uint64) uint64 {
	if preferred > 0 {
		return preferred
	}
	return fallback
}

func replicaSubset(all map[string]chainadapter.Replica, names []string) map[string]chainadapter.Replica {
	out := make(map[string]chainadapter.Replica, len(names))
	for _, name := range names {
		out[name] = all[name]
	}
	return out
}

func dispatchFetchRange(home chainadapter.Home) monitor.FetchRange {
	return func(ctx context.Context, from, to uint64) ([]monitor.EventMeta, error) {
		events, err := home.FetchDispatches(ctx, from, to)
		if err != nil {
			return nil, err
		}
		out := make([]monitor.EventMeta, len(events))
		for i, ev := range events {
			out[i] = monitor.EventMeta{BlockNumber: ev.BlockNumber, IntraBlockIndex: ev.IntraBlockIndex}
		}
		return out, nil
	}
}

func updateFetchRange(home chainadapter.Home) monitor.FetchRange {
	return func(ctx context.Context, from, to uint64) ([]monitor.EventMeta, error) {
		events, err := home.FetchUpdates(ctx, from, to)
		if err != nil {
			return nil, err
		}
		out := make([]monitor.EventMeta, len(events))
		for i, ev := range events {
			out[i] = monitor.EventMeta{BlockNumber: ev.BlockNumber, IntraBlockIndex: ev.IntraBlockIndex}
		}
		return out, nil
	}
}
