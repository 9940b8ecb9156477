package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Justicegaines03/SOC-Risk-Engine/internal/orchestrator"
	"github.com/Justicegaines03/SOC-Risk-Engine/internal/services"
)

var (
	statusHeaderStyle    = lipgloss.NewStyle().Bold(true)
	statusRunningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	statusFailedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStartingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusStoppedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusUnhealthyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state and health of every stack service",
		Args:  cobra.NoArgs,
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
			statuses, err := orch.Status()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderStatusTable(statuses))
			return nil
		},
	}
}

func stateStyle(state services.ServiceState) lipgloss.Style {
	switch state {
	case services.StateRunning:
		return statusRunningStyle
	case services.StateFailed:
		return statusFailedStyle
	case services.StateStarting, services.StateWaiting:
		return statusStartingStyle
	default:
		return statusStoppedStyle
	}
}

func healthStyle(health services.HealthStatus) lipgloss.Style {
	switch health {
	case services.HealthHealthy:
		return statusRunningStyle
	case services.HealthUnhealthy:
		return statusUnhealthyStyle
	case services.HealthChecking:
		return statusStartingStyle
	default:
		return statusStoppedStyle
	}
}

// sinceText renders how long ago a state transition happened. Zero
// means the service has not transitioned in this process.
func sinceText(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return time.Since(t).Truncate(time.Second).String()
}

// renderStatusTable formats the snapshot as a fixed-width table in
// startup order. Failure reasons ride in the error column; secret
// values never reach the snapshot, so nothing here needs redaction.
func renderStatusTable(statuses []orchestrator.ServiceStatus) string {
	const (
		nameWidth   = 16
		stateWidth  = 12
		healthWidth = 12
		depsWidth   = 28
		sinceWidth  = 10
	)

	var b strings.Builder
	b.WriteString(statusHeaderStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %s",
		nameWidth, "SERVICE", stateWidth, "STATE", healthWidth, "HEALTH",
		depsWidth, "DEPENDS ON", sinceWidth, "SINCE", "ERROR")))
	b.WriteString("\n")

	for _, st := range statuses {
		deps := strings.Join(st.DependsOn, ", ")
		if deps == "" {
			deps = "-"
		}
		b.WriteString(fmt.Sprintf("%-*s %s %s %-*s %-*s %s\n",
			nameWidth, st.Name,
			stateStyle(st.State).Render(fmt.Sprintf("%-*s", stateWidth, st.State)),
			healthStyle(st.Health).Render(fmt.Sprintf("%-*s", healthWidth, st.Health)),
			depsWidth, deps,
			sinceWidth, sinceText(st.LastTransition),
			st.Error))
	}
	return b.String()
}
