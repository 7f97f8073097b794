package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftline/docsync/internal/core/domain"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect the background job queue",
	RunE:  runJobsList,
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show one job in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsStatus,
}

func init() {
	jobsCmd.Flags().IntVar(&jobsLimit, "limit", 20, "number of recent jobs to show")
	jobsCmd.AddCommand(jobsStatusCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	if jobStore == nil {
		return errors.New("job store not configured")
	}

	jobs, err := jobStore.ListRecent(context.Background(), jobsLimit)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	if len(jobs) == 0 {
		cmd.Println("No jobs yet.")
		return nil
	}

	for _, job := range jobs {
		detail := job.Note
		if job.Status == domain.JobFailed && job.Error != "" {
			detail = job.Error
		}
		cmd.Printf("%s  %-8s  %-11s  attempt %d  %s  %s\n",
			job.ID, job.Kind, job.Status, job.Attempts,
			job.UpdatedAt.Local().Format(time.RFC3339), detail)
	}
	return nil
}

func runJobsStatus(cmd *cobra.Command, args []string) error {
	if taskQueue == nil {
		return errors.New("task queue not configured")
	}

	job, err := taskQueue.Status(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("job %s: %w", args[0], err)
	}

	cmd.Printf("Job:      %s\n", job.ID)
	cmd.Printf("Kind:     %s\n", job.Kind)
	cmd.Printf("Status:   %s\n", job.Status)
	cmd.Printf("Attempts: %d\n", job.Attempts)
	cmd.Printf("Created:  %s\n", job.CreatedAt.Local().Format(time.RFC3339))
	cmd.Printf("Updated:  %s\n", job.UpdatedAt.Local().Format(time.RFC3339))
	if job.Note != "" {
		cmd.Printf("Note:     %s\n", job.Note)
	}
	if job.Error != "" {
		cmd.Printf("Error:    %s\n", job.Error)
	}
	return nil
}
