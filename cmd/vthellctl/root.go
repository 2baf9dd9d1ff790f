package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var verbose bool

	ctx := newCommandContext(&verbose)

	rootCmd := &cobra.Command{
		Use:           "vthellctl",
		Short:         "Inspect VTHell jobs and rebuild the archive index",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(newJobsCommand(ctx))
	rootCmd.AddCommand(newRecordsCommand(ctx))
	rootCmd.AddCommand(newRebuildCommand(ctx))

	return rootCmd
}
