package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Justicegaines03/SOC-Risk-Engine/pkg/logging"
)

func newUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Start the SOC stack",
		Long: `Starts every enabled service in dependency order. Services in the
same dependency level start concurrently (bounded by
run.maxConcurrentStarts), and each start waits for the service's
readiness probe before its dependents are launched.

A service that never becomes healthy is marked Failed together with
everything that depends on it; independent services keep starting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadStackConfig()
			if err != nil {
				return err
			}

			orch, platform, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			logging.Debug("CLI", "Starting stack %s, run %s", cfg.StackName, platform.RunID())

			if err := orch.Up(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stack %s is up (run %s)\n", cfg.StackName, platform.RunID())
			return nil
		},
	}
}
