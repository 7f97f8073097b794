package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/driftline/docsync/internal/core/domain"
)

var connectorCmd = &cobra.Command{
	Use:   "connector",
	Short: "Manage remote storage connectors",
}

var (
	connectorProvider string
	connectorName     string
	connectorFolders  []string
	connectorExts     []string
	connectorMaxSize  int64
	connectorInterval time.Duration
	connectorStrategy string
	credentialsFile   string
	useOAuthFlow      bool
)

var connectorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new connector",
	Long: `Registers a connector for a remote storage provider.

The connector is created enabled but without credentials; run
'docsync connector auth' afterwards to attach an OAuth token.`,
	RunE: runConnectorAdd,
}

var connectorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured connectors",
	RunE:  runConnectorList,
}

var connectorEnableCmd = &cobra.Command{
	Use:   "enable <connector-id>",
	Short: "Enable a connector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setConnectorEnabled(cmd, args[0], true)
	},
}

var connectorDisableCmd = &cobra.Command{
	Use:   "disable <connector-id>",
	Short: "Disable a connector without deleting its sync state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setConnectorEnabled(cmd, args[0], false)
	},
}

var connectorAuthCmd = &cobra.Command{
	Use:   "auth <connector-id>",
	Short: "Attach OAuth credentials to a connector",
	Long: `Attaches OAuth credentials to a connector.

With --oauth, the browser-based authorization flow runs: a consent page
opens, and the resulting tokens are stored automatically.

Otherwise a credential blob is read from the file given by
--credentials-file, or from stdin when the flag is omitted. It must be
a JSON object with at least an access_token field.`,
	Args: cobra.ExactArgs(1),
	RunE: runConnectorAuth,
}

func init() {
	connectorAddCmd.Flags().StringVar(&connectorProvider, "provider", "", "provider: google_drive, onedrive, or dropbox")
	connectorAddCmd.Flags().StringVar(&connectorName, "name", "", "human-readable connector name")
	connectorAddCmd.Flags().StringArrayVar(&connectorFolders, "folder", nil, "provider folder ID to sync (repeatable; empty means root)")
	connectorAddCmd.Flags().StringArrayVar(&connectorExts, "ext", nil, "allowed filename extension, e.g. .pdf (repeatable; empty means all)")
	connectorAddCmd.Flags().Int64Var(&connectorMaxSize, "max-size", 0, "maximum file size in MB (0 means unlimited)")
	connectorAddCmd.Flags().DurationVar(&connectorInterval, "interval", domain.DefaultSyncInterval, "polling interval")
	connectorAddCmd.Flags().StringVar(&connectorStrategy, "strategy", string(domain.SyncPolling), "change discovery: polling or webhook")
	_ = connectorAddCmd.MarkFlagRequired("provider")
	_ = connectorAddCmd.MarkFlagRequired("name")

	connectorAuthCmd.Flags().StringVar(&credentialsFile, "credentials-file", "", "path to a JSON credentials file (default: stdin)")
	connectorAuthCmd.Flags().BoolVar(&useOAuthFlow, "oauth", false, "run the browser-based authorization flow")

	connectorCmd.AddCommand(connectorAddCmd)
	connectorCmd.AddCommand(connectorListCmd)
	connectorCmd.AddCommand(connectorEnableCmd)
	connectorCmd.AddCommand(connectorDisableCmd)
	connectorCmd.AddCommand(connectorAuthCmd)
	rootCmd.AddCommand(connectorCmd)
}

func runConnectorAdd(cmd *cobra.Command, _ []string) error {
	if connectorStore == nil {
		return errors.New("connector store not configured")
	}

	provider := domain.Provider(connectorProvider)
	if !provider.Valid() {
		return fmt.Errorf("unknown provider %q (use google_drive, onedrive, or dropbox)", connectorProvider)
	}

	strategy := domain.SyncStrategy(connectorStrategy)
	if strategy != domain.SyncPolling && strategy != domain.SyncWebhook {
		return fmt.Errorf("unknown strategy %q (use polling or webhook)", connectorStrategy)
	}

	cfg := domain.ConnectorConfig{
		ID:       uuid.New().String(),
		Provider: provider,
		Name:     connectorName,
		Folders:  connectorFolders,
		Filters: domain.FileFilters{
			Extensions: connectorExts,
			MaxSizeMB:  connectorMaxSize,
		},
		Strategy:     strategy,
		SyncInterval: connectorInterval,
		Enabled:      true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := connectorStore.Save(context.Background(), cfg); err != nil {
		return fmt.Errorf("save connector: %w", err)
	}

	cmd.Printf("Connector %s created with ID %s\n", cfg.Name, cfg.ID)
	cmd.Printf("Run 'docsync connector auth %s' to attach credentials.\n", cfg.ID)
	return nil
}

func runConnectorList(cmd *cobra.Command, _ []string) error {
	if connectorStore == nil {
		return errors.New("connector store not configured")
	}

	configs, err := connectorStore.List(context.Background())
	if err != nil {
		return fmt.Errorf("list connectors: %w", err)
	}

	if len(configs) == 0 {
		cmd.Println("No connectors configured. Run 'docsync connector add' to create one.")
		return nil
	}

	for _, cfg := range configs {
		state := "enabled"
		if !cfg.Enabled {
			state = "disabled"
		}
		lastSync := "never"
		if !cfg.LastSync.IsZero() {
			lastSync = cfg.LastSync.Local().Format(time.RFC3339)
		}
		cmd.Printf("%s  %-12s  %-9s  last sync: %s  %s\n",
			cfg.ID, cfg.Provider, state, lastSync, cfg.Name)
	}
	return nil
}

func setConnectorEnabled(cmd *cobra.Command, id string, enabled bool) error {
	if connectorStore == nil {
		return errors.New("connector store not configured")
	}

	if err := connectorStore.SetEnabled(context.Background(), id, enabled); err != nil {
		return fmt.Errorf("update connector: %w", err)
	}

	if enabled {
		cmd.Printf("Connector %s enabled.\n", id)
	} else {
		cmd.Printf("Connector %s disabled.\n", id)
	}
	return nil
}

func runConnectorAuth(cmd *cobra.Command, args []string) error {
	if connectorStore == nil {
		return errors.New("connector store not configured")
	}

	if useOAuthFlow {
		if authorizer == nil {
			return errors.New("authorization flow not configured")
		}
		cmd.Println("Opening browser, waiting for authorization...")
		if err := authorizer.Authorize(context.Background(), args[0]); err != nil {
			return fmt.Errorf("authorization failed: %w", err)
		}
		cmd.Printf("Credentials stored for connector %s.\n", args[0])
		return nil
	}

	var blob []byte
	var err error
	if credentialsFile != "" {
		blob, err = os.ReadFile(credentialsFile)
		if err != nil {
			return fmt.Errorf("read credentials file: %w", err)
		}
	} else {
		blob, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read credentials from stdin: %w", err)
		}
	}

	// Reject garbage early rather than at the first sync.
	var probe map[string]any
	if err := json.Unmarshal(blob, &probe); err != nil {
		return fmt.Errorf("credentials must be a JSON object: %w", err)
	}
	if _, ok := probe["access_token"]; !ok {
		return errors.New("credentials must contain an access_token field")
	}

	if err := connectorStore.UpdateCredentials(context.Background(), args[0], blob); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}

	cmd.Printf("Credentials stored for connector %s.\n", args[0])
	return nil
}
