package cmd

import (
	"context"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const githubRepoSlug = "Justicegaines03/SOC-Risk-Engine"

func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update socctl to the latest released version",
		Long: `Checks for the latest release on GitHub and replaces the current
binary with it when a newer version is available.`,
		RunE: runSelfUpdate,
	}
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	version := rootCmd.Version
	if version == "dev" || version == "" {
		return fmt.Errorf("cannot self-update a development version (%q)", version)
	}

	ctx := context.Background()
	if cmd != nil {
		ctx = cmd.Context()
	}

	latest, err := selfupdate.UpdateSelf(ctx, version, selfupdate.ParseSlug(githubRepoSlug))
	if err != nil {
		return fmt.Errorf("binary update failed: %w", err)
	}

	if latest.LessOrEqual(version) {
		fmt.Printf("Current binary is the latest version %s\n", version)
	} else {
		fmt.Printf("Successfully updated to version %s\n", latest.Version())
	}
	return nil
}
