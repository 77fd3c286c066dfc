package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nomadprotocol/agents/pkg/agents/producer"
	"github.com/nomadprotocol/agents/pkg/contractsync"
	"github.com/nomadprotocol/agents/pkg/pipeline"
)

func newProducerCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "produce",
		Short: "Run the producer: sign accumulator updates and submit them to the home",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer a.DB.Close()
			steps, err := producerSteps(a)
			if err != nil {
				return err
			}
			return runSteps(cmd.Context(), a, steps)
		},
	}
}

// producerSteps builds the producer agent's pipeline.ProcessSteps: a
// MessageSyncer keeping the home's dispatch history mirrored into the
// index, an AccumulatorSyncer keeping Producer's in-memory tree caught
// up with it, the signing loop itself, and the submit loop that pushes
// a signed update on to the home.
func producerSteps(a *app) ([]pipeline.ProcessStep, error) {
	if a.Config.Producer == nil {
		return nil, fmt.Errorf("agent: produce: config has no producer section")
	}
	pc := *a.Config.Producer

	netCfg, ok := a.Config.Networks[pc.Network]
	if !ok {
		return nil, fmt.Errorf("agent: produce: network %q not configured", pc.Network)
	}

	d := newDialer()
	home, err := buildHome(d, pc.Network, netCfg, a.Secrets, true)
	if err != nil {
		return nil, fmt.Errorf("agent: produce: %w", err)
	}

	key, err := a.Secrets.PrivateKey(pc.Signer)
	if err != nil {
		return nil, fmt.Errorf("agent: produce: signer %q: %w", pc.Signer, err)
	}

	tree := producer.NewAccumulator()
	return []pipeline.ProcessStep{
		&contractsync.MessageSyncer{
			Config: contractsync.MessageSyncerConfig{
				Entity:          pc.Network,
				ChunkSize:       netCfg.ChunkSize,
				IdleInterval:    netCfg.PollInterval(),
				DeploymentBlock: netCfg.DeploymentBlock,
			},
			DB:      a.DB,
			Indexer: home,
			Log:     a.Log,
		},
		&producer.AccumulatorSyncer{
			Entity: pc.Network,
			DB:     a.DB,
			Tree:   tree,
			Log:    a.Log,
		},
		&producer.Producer{
			Config: producer.Config{
				Entity:     pc.Network,
				HomeDomain: netCfg.Domain,
				Interval:   pc.Interval(),
			},
			DB:     a.DB,
			Tree:   tree,
			Signer: key,
			Log:    a.Log,
		},
		&producer.Submitter{
			Config: producer.SubmitterConfig{
				Entity:       pc.Network,
				PollInterval: pc.Interval(),
				FinalityWait: pc.Interval(),
			},
			DB:   a.DB,
			Home: home,
			Log:  a.Log,
		},
	}, nil
}
