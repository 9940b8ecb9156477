package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	var yesDestroyData bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Stop the stack and destroy its data volumes",
		Long: `Stops every service, removes the stack network, and deletes the data
volumes behind Cassandra, Elasticsearch, and the other stateful
services. All cases, observables, and indices are lost. Requires
--yes-destroy-data.`,
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
			if err := orch.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("inspecting stack: %w", err)
			}
			if err := orch.Reset(cmd.Context(), yesDestroyData); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stack %s reset; data volumes removed\n", cfg.StackName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yesDestroyData, "yes-destroy-data", false, "Confirm destroying all stack data volumes")
	return cmd
}
