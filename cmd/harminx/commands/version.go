package commands

import "github.com/spf13/cobra"

// Version is set at build time via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "version",
		Short: "Show the harminx version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("harminx version %s\n", Version)
		},
	}
	return c
}
