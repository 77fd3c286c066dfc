// Command agent runs the nomad cross-chain messaging agents: producer,
// relayer, processor, and monitor, each its own subcommand sharing one
// configuration document and persistent index.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
