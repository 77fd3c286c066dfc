package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nomadprotocol/agents/pkg/agents/relayer"
	"github.com/nomadprotocol/agents/pkg/contractsync"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

func newRelayerCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Run the relayer: carry signed updates from a home to a replica",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer a.DB.Close()
			steps, err := relayerSteps(a)
			if err != nil {
				return err
			}
			return runSteps(cmd.Context(), a, steps)
		},
	}
}

// relayerSteps builds the relayer agent's pipeline.ProcessSteps: an
// UpdateSyncer keeping the home's committed-update history mirrored
// into the index, and the Relayer loop that forwards the update extending
// the replica's committed root.
func relayerSteps(a *app) ([]pipeline.ProcessStep, error) {
	if a.Config.Relayer == nil {
		return nil, fmt.Errorf("agent: relay: config has no relayer section")
	}
	rc := *a.Config.Relayer

	homeCfg, ok := a.Config.Networks[rc.Home]
	if !ok {
		return nil, fmt.Errorf("agent: relay: network %q not configured", rc.Home)
	}
	replicaCfg, ok := a.Config.Networks[rc.Replica]
	if !ok {
		return nil, fmt.Errorf("agent: relay: network %q not configured", rc.Replica)
	}

	d := newDialer()
	home, err := buildHome(d, rc.Home, homeCfg, a.Secrets, false)
	if err != nil {
		return nil, fmt.Errorf("agent: relay: %w", err)
	}
	replica, err := buildReplica(d, rc.Replica, replicaCfg, homeCfg.Domain, a.Secrets, true)
	if err != nil {
		return nil, fmt.Errorf("agent: relay: %w", err)
	}

	return []pipeline.ProcessStep{
		&contractsync.UpdateSyncer{
			Config: contractsync.UpdateSyncerConfig{
				Entity:          rc.Home,
				ChunkSize:       homeCfg.ChunkSize,
				IdleInterval:    homeCfg.PollInterval(),
				DeploymentBlock: homeCfg.DeploymentBlock,
				Mode:            contractsync.Lagged,
			},
			DB:      a.DB,
			Indexer: home,
			Log:     a.Log,
		},
		&relayer.Relayer{
			Config: relayer.Config{
				Entity:   rc.Home,
				Interval: rc.Interval(),
			},
			DB:      a.DB,
			Home:    home,
			Replica: replica,
			Log:     a.Log,
		},
	}, nil
}
