package driving

import "context"

// Authorizer runs the interactive OAuth authorization flow for a
// connector and stores the resulting credentials.
type Authorizer interface {
	// Authorize opens the provider's consent page, waits for the
	// redirect callback, exchanges the code for tokens and persists
	// them on the connector config. Blocks until the flow completes or
	// times out.
	Authorize(ctx context.Context, connectorID string) error
}
