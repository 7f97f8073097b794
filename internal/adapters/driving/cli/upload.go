package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/driftline/docsync/internal/core/ports/driving"
)

var (
	uploadChunking  string
	uploadEmbedding string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Queue a local document for processing",
	Long: `Queues a local file for chunking, embedding, and indexing. The command
returns as soon as the job is accepted; use 'docsync jobs status' to
follow its progress.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadChunking, "chunking", "", "chunking strategy: recursive or agentic (default: configured)")
	uploadCmd.Flags().StringVar(&uploadEmbedding, "embedding", "", "embedding provider: ollama or openai (default: configured)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if ingestor == nil {
		return errors.New("ingest service not configured")
	}

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	jobID, err := ingestor.Ingest(context.Background(), driving.IngestRequest{
		FilePath:         path,
		EmbeddingType:    uploadEmbedding,
		ChunkingStrategy: uploadChunking,
	})
	if err != nil {
		return fmt.Errorf("queue upload: %w", err)
	}

	cmd.Printf("Queued %s as job %s\n", filepath.Base(path), jobID)
	return nil
}
