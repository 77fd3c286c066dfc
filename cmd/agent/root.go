package main

import (
	"github.com/spf13/cobra"
)

// rootFlags holds the persistent flags every subcommand reads to build
// its app wiring; cobra.Command.Flags() values aren't visible to a
// sibling command's RunE without threading them through something, so
// each subcommand's RunE hands this struct to buildApp.
type rootFlags struct {
	config      string
	logLevel    string
	metricsPort int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "agent",
		Short: "Nomad cross-chain messaging agents",
		Long: `agent runs the nomad protocol's off-chain agents: producer signs
accumulator updates, relayer carries them to replicas, processor proves
and delivers messages, and monitor reports latency metrics across all
of it. Each is its own subcommand sharing one configuration document
(--config) and one persistent index directory (named inside it).`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.config, "config", "builtin:local-mock",
		"configuration document: a local path, an http(s):// URL, or builtin:<name>")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().IntVar(&flags.metricsPort, "metrics-port", 0,
		"metrics server port; 0 defers to the config document, falling back to 9090")

	root.AddCommand(
		newProducerCmd(flags),
		newRelayerCmd(flags),
		newProcessorCmd(flags),
		newMonitorCmd(flags),
		newRunCmd(flags),
	)

	return root
}
