package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/driftline/docsync/internal/adapters/driven/ai"
	configfile "github.com/driftline/docsync/internal/adapters/driven/config/file"
	"github.com/driftline/docsync/internal/adapters/driven/storage/sqlite"
	"github.com/driftline/docsync/internal/adapters/driven/uploadwatch"
	"github.com/driftline/docsync/internal/adapters/driving/cli"
	"github.com/driftline/docsync/internal/adapters/driving/oauth"
	"github.com/driftline/docsync/internal/chunking"
	"github.com/driftline/docsync/internal/connectors/dropbox"
	"github.com/driftline/docsync/internal/connectors/googledrive"
	"github.com/driftline/docsync/internal/connectors/onedrive"
	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/core/ports/driving"
	"github.com/driftline/docsync/internal/core/services"
	"github.com/driftline/docsync/internal/logger"
	"github.com/driftline/docsync/internal/processor"
	"github.com/driftline/docsync/internal/taskqueue"
	"github.com/driftline/docsync/internal/vectorstore"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional; API keys can come from a local .env during development.
	_ = godotenv.Load()

	settingsStore, err := configfile.NewSettingsStore("")
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	settings := settingsStore.Settings()

	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docsync")
	}
	downloadDir := settings.Storage.DownloadDir
	if downloadDir == "" {
		downloadDir = filepath.Join(dataDir, "downloads")
	}
	vectorDir := settings.Storage.VectorDir
	if vectorDir == "" {
		vectorDir = filepath.Join(dataDir, "vectors")
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer store.Close()

	resolver := ai.NewResolver(settings.Embedding)
	defer resolver.Close()

	promptStore, err := configfile.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}

	procOpts := []processor.Option{
		processor.WithStrategy(chunking.NewRecursive(
			chunking.WithChunkSize(settings.Chunking.ChunkSize),
			chunking.WithOverlap(settings.Chunking.Overlap),
		)),
	}

	llm, err := ai.CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		logger.Warn("LLM unavailable, agentic chunking disabled: %v", err)
	}
	if llm != nil {
		defer llm.Close()
		agenticOpts := []chunking.AgenticOption{
			chunking.WithMaxChunkSize(settings.Chunking.MaxChunkSize()),
		}
		if prompt, err := promptStore.Load(driven.PromptSegmentation); err == nil {
			agenticOpts = append(agenticOpts, chunking.WithPromptTemplate(prompt))
		}
		procOpts = append(procOpts, processor.WithStrategy(
			chunking.NewAgentic(llm, agenticOpts...)))
	}

	cache := vectorstore.NewCache(vectorDir, resolver, settings.Embedding.Provider.String())
	progress := services.NewProgressRecorder(store.JobStore())
	procOpts = append(procOpts,
		processor.WithSink(cache),
		processor.WithObserver(progress),
	)
	proc := processor.New(procOpts...)

	queue := taskqueue.New(store.JobStore(),
		taskqueue.WithWorkers(settings.Queue.Workers),
		taskqueue.WithMaxAttempts(settings.Queue.MaxAttempts),
	)

	factory := services.NewConnectorFactory()
	factory.Register(domain.ProviderGoogleDrive, googledrive.NewBuilder())
	factory.Register(domain.ProviderOneDrive, onedrive.NewBuilder())
	factory.Register(domain.ProviderDropbox, dropbox.NewBuilder())

	detector := services.NewChangeDetector(store.FileSyncStateStore())
	syncOrch := services.NewSyncOrchestrator(
		store.ConnectorConfigStore(), detector, factory, queue, proc, downloadDir,
		services.WithSyncProgress(progress))
	ingestor := services.NewIngestor(queue, proc, services.WithIngestProgress(progress))

	queue.RegisterHandler(domain.JobKindDownload, syncOrch.HandleDownloadJob)
	queue.RegisterHandler(domain.JobKindIngest, ingestor.HandleIngestJob)

	scheduler := services.NewScheduler(
		domain.DefaultSchedulerConfig(), store.SchedulerStore(), syncOrch)

	cli.SetVersion(version)
	cli.SetSyncOrchestrator(syncOrch)
	cli.SetIngestor(ingestor)
	cli.SetConnectorStore(store.ConnectorConfigStore())
	cli.SetJobStore(store.JobStore())
	cli.SetTaskQueue(queue)
	cli.SetAuthorizer(oauth.NewFlow(store.ConnectorConfigStore()))
	cli.SetSettingsManager(services.NewSettingsService(settingsStore, ai.NewValidator()))
	cli.SetDaemon(&daemon{
		queue:     queue,
		scheduler: scheduler,
		ingestor:  ingestor,
		uploadDir: settings.Storage.UploadDir,
	})

	return cli.Execute()
}

// daemon runs the long-lived parts of the pipeline: queue workers, the
// connector sync scheduler, and the optional upload directory watcher.
type daemon struct {
	queue     *taskqueue.Queue
	scheduler *services.Scheduler
	ingestor  driving.Ingestor
	uploadDir string
}

func (d *daemon) Run(ctx context.Context) error {
	if err := d.queue.Start(ctx); err != nil {
		return fmt.Errorf("start task queue: %w", err)
	}
	defer d.queue.Stop()
	defer d.scheduler.Stop()

	if d.uploadDir != "" {
		if err := os.MkdirAll(d.uploadDir, 0o755); err != nil {
			return fmt.Errorf("create upload directory: %w", err)
		}
		watcher, err := uploadwatch.NewWatcher(d.uploadDir, d.ingestor)
		if err != nil {
			return fmt.Errorf("watch upload directory: %w", err)
		}
		go func() {
			if err := watcher.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("upload watcher stopped: %v", err)
			}
		}()
		logger.Info("Watching %s for uploads", d.uploadDir)
	}

	// Blocks until the context is cancelled.
	return d.scheduler.Start(ctx)
}
