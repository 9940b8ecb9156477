package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/docker"
)

func newLogsCmd() *cobra.Command {
	var (
		follow bool
		tail   string
	)

	cmd := &cobra.Command{
		Use:   "logs <service>",
		Short: "Stream logs from a stack service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadStackConfig()
			if err != nil {
				return err
			}
			name := args[0]
			if _, ok := cfg.Service(name); !ok {
				return fmt.Errorf("unknown service %q", name)
			}

			platform, err := docker.NewPlatform(cfg.StackName)
			if err != nil {
				return err
			}
			return platform.StreamLogs(cmd.Context(), name, cmd.OutOrStdout(), cmd.ErrOrStderr(), follow, tail)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	cmd.Flags().StringVar(&tail, "tail", "all", "Number of trailing lines to show")
	return cmd
}
