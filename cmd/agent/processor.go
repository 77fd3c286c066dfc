package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/nomadprotocol/agents/pkg/agents/processor"
	"github.com/nomadprotocol/agents/pkg/contractsync"
	"github.com/nomadprotocol/agents/pkg/pipeline"
	"github.com/nomadprotocol/agents/pkg/types"
)

func newProcessorCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Run the processor: prove and deliver messages to a replica",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer a.DB.Close()
			steps, err := processorSteps(a)
			if err != nil {
				return err
			}
			return runSteps(cmd.Context(), a, steps)
		},
	}
}

// processorSteps builds the processor agent's pipeline.ProcessSteps: a
// MessageSyncer and ProverSync keeping the home's message and proof
// history mirrored into the index, and the Processor loop that proves
// and delivers each message in nonce order.
func processorSteps(a *app) ([]pipeline.ProcessStep, error) {
	if a.Config.Processor == nil {
		return nil, fmt.Errorf("agent: process: config has no processor section")
	}
	pc := *a.Config.Processor

	homeCfg, ok := a.Config.Networks[pc.Home]
	if !ok {
		return nil, fmt.Errorf("agent: process: network %q not configured", pc.Home)
	}
	replicaCfg, ok := a.Config.Networks[pc.Replica]
	if !ok {
		return nil, fmt.Errorf("agent: process: network %q not configured", pc.Replica)
	}

	d := newDialer()
	home, err := buildHome(d, pc.Home, homeCfg, a.Secrets, false)
	if err != nil {
		return nil, fmt.Errorf("agent: process: %w", err)
	}
	replica, err := buildReplica(d, pc.Replica, replicaCfg, homeCfg.Domain, a.Secrets, true)
	if err != nil {
		return nil, fmt.Errorf("agent: process: %w", err)
	}

	deny, err := parseID32Set(pc.Deny)
	if err != nil {
		return nil, fmt.Errorf("agent: process: deny: %w", err)
	}
	allow, err := parseID32Set(pc.Allow)
	if err != nil {
		return nil, fmt.Errorf("agent: process: allow: %w", err)
	}

	return []pipeline.ProcessStep{
		&contractsync.MessageSyncer{
			Config: contractsync.MessageSyncerConfig{
				Entity:          pc.Home,
				ChunkSize:       homeCfg.ChunkSize,
				IdleInterval:    homeCfg.PollInterval(),
				DeploymentBlock: homeCfg.DeploymentBlock,
			},
			DB:      a.DB,
			Indexer: home,
			Log:     a.Log,
		},
		&processor.ProverSync{
			Entity: pc.Home,
			DB:     a.DB,
			Log:    a.Log,
		},
		&processor.Processor{
			Config: processor.Config{
				Entity:        pc.Home,
				ReplicaDomain: replicaCfg.Domain,
				RetryInterval: pc.RetryInterval(),
				Filter:        processor.MessageFilter{Deny: deny, Allow: allow},
			},
			DB:      a.DB,
			Replica: replica,
			Log:     a.Log,
		},
	}, nil
}

// parseID32Set parses a list of hex-encoded addresses (0x-prefixed or
// not) into the ID32 set MessageFilter compares senders against.
func parseID32Set(hexAddrs []string) (map[types.ID32]bool, error) {
	if len(hexAddrs) == 0 {
		return nil, nil
	}
	out := make(map[types.ID32]bool, len(hexAddrs))
	for _, hexAddr := range hexAddrs {
		if !common.IsHexAddress(hexAddr) {
			return nil, fmt.Errorf("invalid address %q", hexAddr)
		}
		addr := common.HexToAddress(hexAddr)
		out[types.ID32FromAddress(addr.Bytes())] = true
	}
	return out, nil
}
