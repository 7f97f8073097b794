// Package cli implements the docsync command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/core/ports/driving"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by the composition root before Execute runs.
// Commands check for nil so unit tests can run commands in isolation.
var (
	syncOrchestrator driving.SyncOrchestrator
	ingestor         driving.Ingestor
	connectorStore   driven.ConnectorConfigStore
	jobStore         driven.JobStore
	taskQueue        driven.TaskQueue
	authorizer       driving.Authorizer
	settingsManager  driving.SettingsManager
	daemon           Daemon
)

// Daemon is the long-running mode behind the serve command: task queue
// workers, the scheduler, and the upload watcher.
type Daemon interface {
	// Run blocks until ctx is cancelled.
	Run(ctx context.Context) error
}

var rootCmd = &cobra.Command{
	Use:   "docsync",
	Short: "Synchronise remote documents into a local semantic index",
	Long: `docsync keeps documents from Google Drive, OneDrive, and Dropbox
synchronised into a local, content-addressed vector index.

Connectors discover changed files, the task queue downloads and
processes them, and chunks are embedded and cached per content hash,
embedding model, and language.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string shown by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetSyncOrchestrator injects the sync service.
func SetSyncOrchestrator(s driving.SyncOrchestrator) {
	syncOrchestrator = s
}

// SetIngestor injects the upload service.
func SetIngestor(i driving.Ingestor) {
	ingestor = i
}

// SetConnectorStore injects the connector configuration store.
func SetConnectorStore(s driven.ConnectorConfigStore) {
	connectorStore = s
}

// SetJobStore injects the job record store.
func SetJobStore(s driven.JobStore) {
	jobStore = s
}

// SetTaskQueue injects the task queue.
func SetTaskQueue(q driven.TaskQueue) {
	taskQueue = q
}

// SetAuthorizer injects the OAuth authorization flow.
func SetAuthorizer(a driving.Authorizer) {
	authorizer = a
}

// SetSettingsManager injects the settings service.
func SetSettingsManager(s driving.SettingsManager) {
	settingsManager = s
}

// SetDaemon injects the serve-mode runner.
func SetDaemon(d Daemon) {
	daemon = d
}
