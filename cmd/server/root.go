package main

import (
	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/config.yaml"

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "video-sentiment",
		Short:         "Transcribe review videos and score per-feature sentiment",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configFlag)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", defaultConfigPath, "Configuration file path")

	rootCmd.AddCommand(newServeCommand(&configFlag))
	rootCmd.AddCommand(newScoreCommand())
	rootCmd.AddCommand(newDriveAuthCommand(&configFlag))

	return rootCmd
}
