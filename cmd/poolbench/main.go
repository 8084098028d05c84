// Command poolbench drives a pool.Pool with many concurrent virtual users,
// in the spirit of a load-testing CLI: it reports lease and failure counts,
// average lease latency, and end-of-run capacity stats.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "poolbench",
		Short: "Drive a connpool Pool with concurrent virtual users and report throughput/latency",
	}
	root.AddCommand(newRunCmd())
	return root
}
