package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/video-sentiment/internal/config"
	"github.com/codebuildervaibhav/video-sentiment/internal/storage"
)

func newDriveAuthCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "drive-auth",
		Short: "Authorize Google Drive export and cache the OAuth token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			gd := cfg.GoogleDrive
			if err := storage.AuthorizeDrive(cmd.Context(), gd.CredentialsFile, gd.TokenFile, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved to %s\n", gd.TokenFile)
			return nil
		},
	}
}
