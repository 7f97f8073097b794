package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/driftline/docsync/internal/core/domain"
)

// OAuthCredentials is the decoded form of the opaque credential blob
// stored on a ConnectorConfig. The interactive authorization flow that
// produces the blob is driven by the CLI; connectors only consume the
// resulting tokens.
type OAuthCredentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// DecodeCredentials parses a stored credential blob.
// Returns ErrAuthRequired when the blob is empty and ErrInvalidInput
// when it is present but unparseable.
func DecodeCredentials(blob json.RawMessage) (*OAuthCredentials, error) {
	if len(blob) == 0 || string(blob) == "null" {
		return nil, domain.ErrAuthRequired
	}

	var creds OAuthCredentials
	if err := json.Unmarshal(blob, &creds); err != nil {
		return nil, fmt.Errorf("%w: decode credentials: %v", domain.ErrInvalidInput, err)
	}

	if creds.AccessToken == "" {
		return nil, domain.ErrAuthRequired
	}

	return &creds, nil
}

// Token converts the credentials to an oauth2 token.
func (c *OAuthCredentials) Token() *oauth2.Token {
	tokenType := c.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    tokenType,
		Expiry:       c.Expiry,
	}
}

// Expired reports whether the access token's expiry has passed.
// A zero expiry means the provider did not report one and the token is
// assumed valid until the provider rejects it.
func (c *OAuthCredentials) Expired() bool {
	return !c.Expiry.IsZero() && time.Now().After(c.Expiry)
}

// TokenSource returns an oauth2.TokenSource backed by these credentials.
// Tokens are served as-is. Refresh is handled by the layer that owns the
// credential store, so a refreshed blob arrives via a new config snapshot.
func (c *OAuthCredentials) TokenSource(_ context.Context) oauth2.TokenSource {
	return oauth2.StaticTokenSource(c.Token())
}
