// Package commands implements the harminx CLI: a thin cobra tree around
// pkg/orchestrator, in the same shape docker/model-runner's cmd/cli
// builds its command tree.
package commands

import "github.com/spf13/cobra"

// NewRootCmd builds the harminx root command and registers its
// subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "harminx",
		Short: "Replay and minimize recorded HTTP requests from a HAR archive",
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}
