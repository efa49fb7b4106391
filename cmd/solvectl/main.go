// Package main implements solvectl, the command-line client of a solvernet
// cluster.
//
// Commands:
//
//	solvectl solve             - generate a random 5x6 system and solve it
//	solvectl solve -n 20       - same with 20 unknowns
//	solvectl solve -f sys.json - solve {"matrix": [...]} read from a file
//	solvectl watch             - live table of the ranked worker roster
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "solvectl",
		Short:        "Client for a solvernet cluster",
		SilenceUsage: true,
	}
	root.AddCommand(newSolveCmd(), newWatchCmd())
	return root
}
