package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nomadprotocol/agents/pkg/pipeline"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every agent named in the config document against one shared index",
		Long: `run starts the metrics server once and then starts whichever of
producer/relayer/processor/monitor the config document configures,
all sharing one index and one process lifetime. This is the shape a
single-binary dev or demo deployment uses; a production deployment
typically runs each subcommand in its own process instead, so a
restart of one agent doesn't interrupt the others.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			defer a.DB.Close()

			var steps []pipeline.ProcessStep

			if a.Config.Producer != nil {
				s, err := producerSteps(a)
				if err != nil {
					return fmt.Errorf("agent: run: %w", err)
				}
				steps = append(steps, s...)
			}
			if a.Config.Relayer != nil {
				s, err := relayerSteps(a)
				if err != nil {
					return fmt.Errorf("agent: run: %w", err)
				}
				steps = append(steps, s...)
			}
			if a.Config.Processor != nil {
				s, err := processorSteps(a)
				if err != nil {
					return fmt.Errorf("agent: run: %w", err)
				}
				steps = append(steps, s...)
			}
			if a.Config.Monitor != nil {
				s, err := monitorSteps(a)
				if err != nil {
					return fmt.Errorf("agent: run: %w", err)
				}
				steps = append(steps, s...)
			}

			return runSteps(cmd.Context(), a, steps)
		},
	}
}
