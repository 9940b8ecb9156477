package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/cortex"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/hive"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/risk"
)

func newScoreCmd() *cobra.Command {
	var caseID string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score open TheHive cases with Cortex analyzer verdicts",
		Long: `Pulls unscored cases from TheHive, matches their observables against
completed Cortex analyzer jobs, computes an annualized loss expectancy
per case, and posts the assessment back as a task log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadStackConfig()
			if err != nil {
				return err
			}
			if cfg.Hive.APIKey == "" {
				return fmt.Errorf("TheHive API key is not set (SOCCTL_THEHIVE_API_KEY)")
			}
			if cfg.Cortex.APIKey == "" {
				return fmt.Errorf("Cortex API key is not set (SOCCTL_CORTEX_API_KEY)")
			}

			engine := risk.NewEngine(
				hive.New(cfg.Hive.URL, cfg.Hive.APIKey),
				cortex.New(cfg.Cortex.URL, cfg.Cortex.APIKey),
				cfg.Hive.ScoredTag,
			)

			if caseID != "" {
				if err := engine.ScoreOne(cmd.Context(), caseID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Scored case %s\n", caseID)
				return nil
			}

			scored, err := engine.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("scored %d case(s) before failing: %w", scored, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scored %d case(s)\n", scored)
			return nil
		},
	}

	cmd.Flags().StringVar(&caseID, "case", "", "Score a single case by ID instead of all unscored cases")
	return cmd
}
