package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Stop the SOC stack",
		Long: `Stops every service in reverse dependency order and removes the
stack's containers and network. Named volumes are kept, so all case
data survives; use "socctl reset" to wipe it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadStackConfig()
			if err != nil {
				return err
			}

			orch, _, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			if err := orch.Down(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stack %s is down\n", cfg.StackName)
			return nil
		},
	}
}

func newRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart <service>",
		Short: "Restart one service",
		Long: `Restarts a single service and waits for its readiness probe again.
Dependent services are not restarted; they only see the service as
briefly unreachable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadStackConfig()
			if err != nil {
				return err
			}

			orch, _, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			if err := orch.Restart(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Service %s restarted\n", args[0])
			return nil
		},
	}
}
