package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"golang.org/x/oauth2/microsoft"

	"github.com/driftline/docsync/internal/connectors"
	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
	"github.com/driftline/docsync/internal/core/ports/driving"
	"github.com/driftline/docsync/internal/logger"
)

// Callback server port range. Providers require the redirect URI to be
// registered, so the range is small and fixed.
const (
	callbackPortStart = 8765
	callbackPortEnd   = 8775
)

// DefaultAuthTimeout bounds how long the flow waits for the user to
// complete the consent page.
const DefaultAuthTimeout = 5 * time.Minute

// Ensure Flow implements the interface.
var _ driving.Authorizer = (*Flow)(nil)

// Flow runs the authorization-code flow with PKCE for a connector and
// stores the resulting tokens on its config.
type Flow struct {
	store   driven.ConnectorConfigStore
	timeout time.Duration

	// openBrowser and endpointFor are overridable in tests.
	openBrowser func(url string) error
	endpointFor func(provider domain.Provider) (oauth2.Endpoint, error)
}

// FlowOption configures the flow.
type FlowOption func(*Flow)

// WithAuthTimeout sets how long to wait for the callback.
func WithAuthTimeout(d time.Duration) FlowOption {
	return func(f *Flow) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// NewFlow creates an authorization flow over the config store.
func NewFlow(store driven.ConnectorConfigStore, opts ...FlowOption) *Flow {
	f := &Flow{
		store:       store,
		timeout:     DefaultAuthTimeout,
		openBrowser: OpenBrowser,
		endpointFor: providerEndpoint,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Authorize runs the flow for one connector: opens the consent page,
// waits for the redirect, exchanges the code and persists the tokens.
func (f *Flow) Authorize(ctx context.Context, connectorID string) error {
	cfg, err := f.store.Get(ctx, connectorID)
	if err != nil {
		return fmt.Errorf("get connector config: %w", err)
	}

	oc, err := f.oauthConfig(cfg.Provider)
	if err != nil {
		return err
	}

	port, err := FindAvailablePort(callbackPortStart, callbackPortEnd)
	if err != nil {
		return err
	}

	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()

	server := NewCallbackServer(port, state)
	if err := server.Start(); err != nil {
		return fmt.Errorf("start callback server: %w", err)
	}
	defer server.Stop()

	oc.RedirectURL = server.RedirectURI()

	authOpts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	}
	if cfg.Provider == domain.ProviderDropbox {
		// Dropbox only issues refresh tokens when asked explicitly.
		authOpts = append(authOpts, oauth2.SetAuthURLParam("token_access_type", "offline"))
	}
	authURL := oc.AuthCodeURL(state, authOpts...)

	logger.Info("Opening browser for %s authorization", cfg.Provider)
	if err := f.openBrowser(authURL); err != nil {
		logger.Warn("open browser: %v", err)
		fmt.Printf("Open this URL to authorize:\n\n  %s\n\n", authURL)
	}

	code, err := server.WaitForCode(f.timeout)
	if err != nil {
		return fmt.Errorf("authorization: %w", err)
	}

	token, err := oc.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	blob, err := json.Marshal(connectors.OAuthCredentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	})
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := f.store.UpdateCredentials(ctx, connectorID, blob); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}

	logger.Info("Stored credentials for connector %s", connectorID)
	return nil
}

// oauthConfig builds the oauth2 client config for a provider. Client
// IDs and secrets come from the environment; there is no safe way to
// ship them inside an open binary.
func (f *Flow) oauthConfig(provider domain.Provider) (*oauth2.Config, error) {
	endpoint, err := f.endpointFor(provider)
	if err != nil {
		return nil, err
	}

	var idVar, secretVar string
	var scopes []string
	switch provider {
	case domain.ProviderGoogleDrive:
		idVar, secretVar = "DOCSYNC_GOOGLE_CLIENT_ID", "DOCSYNC_GOOGLE_CLIENT_SECRET"
		scopes = []string{"https://www.googleapis.com/auth/drive.readonly"}
	case domain.ProviderOneDrive:
		idVar, secretVar = "DOCSYNC_ONEDRIVE_CLIENT_ID", "DOCSYNC_ONEDRIVE_CLIENT_SECRET"
		scopes = []string{"Files.Read.All", "offline_access"}
	case domain.ProviderDropbox:
		idVar, secretVar = "DOCSYNC_DROPBOX_APP_KEY", "DOCSYNC_DROPBOX_APP_SECRET"
		scopes = []string{"files.metadata.read", "files.content.read"}
	default:
		return nil, fmt.Errorf("%w: no oauth config for provider %s", domain.ErrInvalidInput, provider)
	}

	clientID := os.Getenv(idVar)
	if clientID == "" {
		return nil, fmt.Errorf("%s is not set", idVar)
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: os.Getenv(secretVar),
		Endpoint:     endpoint,
		Scopes:       scopes,
	}, nil
}

func providerEndpoint(provider domain.Provider) (oauth2.Endpoint, error) {
	switch provider {
	case domain.ProviderGoogleDrive:
		return endpoints.Google, nil
	case domain.ProviderOneDrive:
		return microsoft.AzureADEndpoint("common"), nil
	case domain.ProviderDropbox:
		return endpoints.Dropbox, nil
	default:
		return oauth2.Endpoint{}, fmt.Errorf("%w: unknown provider %s", domain.ErrInvalidInput, provider)
	}
}
