package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "supervisor",
		Short:         "Multi-stack session supervisor",
		Long:          "supervisor keeps the registry of activity stacks, routes lifecycle events to them and serves an admin API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(newServeCommand(), newDumpCommand())
	return cmd
}
