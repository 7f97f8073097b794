package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftline/docsync/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync [connector-id]",
	Short: "Synchronise documents from connectors",
	Long: `Runs a synchronisation cycle against configured connectors.
If a connector ID is provided, only that connector is synchronised.
Otherwise, all enabled connectors are synchronised.

Changed files are enqueued as download jobs; processing happens in the
background workers (see 'docsync serve' and 'docsync jobs').`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		connectorID := args[0]
		cmd.Printf("Synchronising connector: %s...\n", connectorID)

		if err := syncWithProgress(ctx, cmd, syncOrchestrator, connectorID); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		cmd.Printf("Connector %s synchronised successfully.\n", connectorID)
	} else {
		cmd.Println("Synchronising all connectors...")

		if err := syncOrchestrator.SyncAll(ctx); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		cmd.Println("All connectors synchronised successfully.")
	}

	return nil
}

// syncWithProgress runs sync while displaying progress updates.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	syncOrch driving.SyncOrchestrator,
	connectorID string,
) error {
	// Start sync in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- syncOrch.Sync(ctx, connectorID)
	}()

	// Poll status every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastListed := 0
	for {
		select {
		case err := <-errCh:
			// Print final status (ignore status error - best effort)
			status, statusErr := syncOrch.Status(ctx, connectorID)
			if statusErr == nil && status != nil && status.FilesListed > 0 {
				cmd.Printf("\rListed %d files, enqueued %d downloads (%d errors)\n",
					status.FilesListed, status.FilesEnqueued, status.ErrorCount)
			}
			return err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			status, statusErr := syncOrch.Status(ctx, connectorID)
			if statusErr == nil && status != nil && status.FilesListed > lastListed {
				cmd.Printf("\rListing... %d files", status.FilesListed)
				lastListed = status.FilesListed
			}
		}
	}
}
