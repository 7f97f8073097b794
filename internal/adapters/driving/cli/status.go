package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/driftline/docsync/internal/core/domain"
)

var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#7C3AED"))

	statusOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1"))

	statusWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF"))

	statusErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8"))

	statusMutedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6C7086"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connector and queue health at a glance",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if connectorStore == nil || jobStore == nil {
		return errors.New("status services not configured")
	}

	ctx := context.Background()

	configs, err := connectorStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list connectors: %w", err)
	}

	cmd.Println(statusTitleStyle.Render("Connectors"))
	if len(configs) == 0 {
		cmd.Println(statusMutedStyle.Render("  none configured"))
	}
	for _, cfg := range configs {
		state := statusOKStyle.Render("enabled")
		if !cfg.Enabled {
			state = statusMutedStyle.Render("disabled")
		}
		lastSync := statusWarnStyle.Render("never synced")
		if !cfg.LastSync.IsZero() {
			lastSync = "synced " + humanSince(cfg.LastSync)
		}
		cmd.Printf("  %-24s %-12s %s  %s\n", cfg.Name, cfg.Provider, state, lastSync)
	}

	jobs, err := jobStore.ListRecent(ctx, 50)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	var queued, running, failed int
	for _, job := range jobs {
		switch job.Status {
		case domain.JobQueued:
			queued++
		case domain.JobInProgress:
			running++
		case domain.JobFailed:
			failed++
		}
	}

	cmd.Println()
	cmd.Println(statusTitleStyle.Render("Queue"))
	cmd.Printf("  %d queued, %d running\n", queued, running)
	if failed > 0 {
		cmd.Println("  " + statusErrStyle.Render(fmt.Sprintf("%d failed", failed)) +
			statusMutedStyle.Render("  (see 'docsync jobs')"))
	}
	return nil
}

func humanSince(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
