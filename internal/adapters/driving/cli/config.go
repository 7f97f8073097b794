package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/driftline/docsync/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change application settings",
	RunE:  runConfigShow,
}

var (
	aiProvider        string
	aiModel           string
	multilingualModel string
	aiBaseURL         string
	aiAPIKey          string
	chunkStrategy     string
	chunkSize         int
	chunkOverlap      int
)

var configEmbeddingCmd = &cobra.Command{
	Use:   "set-embedding",
	Short: "Configure the embedding provider",
	Long: `Configures the embedding provider. The settings are validated against
the live service before they are saved, so the provider must be
reachable. The model defaults to the provider's default when omitted;
the multilingual model is used for non-English documents.`,
	RunE: runConfigEmbedding,
}

var configLLMCmd = &cobra.Command{
	Use:   "set-llm",
	Short: "Configure the LLM used for agentic chunking",
	RunE:  runConfigLLM,
}

var configChunkingCmd = &cobra.Command{
	Use:   "set-chunking",
	Short: "Configure the default chunking strategy",
	RunE:  runConfigChunking,
}

func init() {
	configEmbeddingCmd.Flags().StringVar(&aiProvider, "provider", "", "provider: ollama or openai")
	configEmbeddingCmd.Flags().StringVar(&aiModel, "model", "", "embedding model (default: provider default)")
	configEmbeddingCmd.Flags().StringVar(&multilingualModel, "multilingual-model", "", "model for non-English documents")
	configEmbeddingCmd.Flags().StringVar(&aiBaseURL, "base-url", "", "service base URL")
	configEmbeddingCmd.Flags().StringVar(&aiAPIKey, "api-key", "", "API key for cloud providers")
	_ = configEmbeddingCmd.MarkFlagRequired("provider")

	configLLMCmd.Flags().StringVar(&aiProvider, "provider", "", "provider: ollama, openai, or anthropic")
	configLLMCmd.Flags().StringVar(&aiModel, "model", "", "model name (default: provider default)")
	configLLMCmd.Flags().StringVar(&aiBaseURL, "base-url", "", "service base URL")
	configLLMCmd.Flags().StringVar(&aiAPIKey, "api-key", "", "API key for cloud providers")
	_ = configLLMCmd.MarkFlagRequired("provider")

	configChunkingCmd.Flags().StringVar(&chunkStrategy, "strategy", "recursive", "chunking strategy: recursive or agentic")
	configChunkingCmd.Flags().IntVar(&chunkSize, "chunk-size", 1000, "chunk size in characters")
	configChunkingCmd.Flags().IntVar(&chunkOverlap, "overlap", 200, "overlap between chunks in characters")

	configCmd.AddCommand(configEmbeddingCmd)
	configCmd.AddCommand(configLLMCmd)
	configCmd.AddCommand(configChunkingCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsManager == nil {
		return errors.New("settings service not configured")
	}

	settings := settingsManager.Settings()

	cmd.Println("Embedding:")
	printAISection(cmd, settings.Embedding.Provider, settings.Embedding.Model, settings.Embedding.BaseURL, settings.Embedding.APIKey)
	if settings.Embedding.MultilingualModel != "" {
		cmd.Printf("  multilingual model: %s\n", settings.Embedding.MultilingualModel)
	}

	cmd.Println("LLM:")
	printAISection(cmd, settings.LLM.Provider, settings.LLM.Model, settings.LLM.BaseURL, settings.LLM.APIKey)

	cmd.Println("Chunking:")
	cmd.Printf("  strategy: %s, chunk size: %d, overlap: %d\n",
		settings.Chunking.Strategy, settings.Chunking.ChunkSize, settings.Chunking.Overlap)

	cmd.Println("Queue:")
	cmd.Printf("  workers: %d, max attempts: %d\n",
		settings.Queue.Workers, settings.Queue.MaxAttempts)

	return nil
}

func printAISection(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string) {
	if provider == "" {
		cmd.Println("  not configured")
		return
	}
	cmd.Printf("  provider: %s, model: %s\n", provider, model)
	if baseURL != "" {
		cmd.Printf("  base URL: %s\n", baseURL)
	}
	if apiKey != "" {
		cmd.Println("  api key: (set)")
	}
}

func runConfigEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsManager == nil {
		return errors.New("settings service not configured")
	}

	err := settingsManager.UpdateEmbedding(context.Background(), domain.EmbeddingSettings{
		Provider:          domain.AIProvider(aiProvider),
		Model:             aiModel,
		MultilingualModel: multilingualModel,
		BaseURL:           aiBaseURL,
		APIKey:            aiAPIKey,
	})
	if err != nil {
		return fmt.Errorf("update embedding settings: %w", err)
	}

	cmd.Println("Embedding settings saved.")
	return nil
}

func runConfigLLM(cmd *cobra.Command, _ []string) error {
	if settingsManager == nil {
		return errors.New("settings service not configured")
	}

	err := settingsManager.UpdateLLM(context.Background(), domain.LLMSettings{
		Provider: domain.AIProvider(aiProvider),
		Model:    aiModel,
		BaseURL:  aiBaseURL,
		APIKey:   aiAPIKey,
	})
	if err != nil {
		return fmt.Errorf("update llm settings: %w", err)
	}

	cmd.Println("LLM settings saved.")
	return nil
}

func runConfigChunking(cmd *cobra.Command, _ []string) error {
	if settingsManager == nil {
		return errors.New("settings service not configured")
	}

	err := settingsManager.UpdateChunking(context.Background(), domain.ChunkingSettings{
		Strategy:  chunkStrategy,
		ChunkSize: chunkSize,
		Overlap:   chunkOverlap,
	})
	if err != nil {
		return fmt.Errorf("update chunking settings: %w", err)
	}

	cmd.Println("Chunking settings saved.")
	return nil
}
