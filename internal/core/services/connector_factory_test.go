package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

func TestConnectorFactory_CreateRegistered(t *testing.T) {
	factory := NewConnectorFactory()
	mock := &syncMockConnector{provider: domain.ProviderDropbox, connectorID: "conn-1"}
	factory.Register(domain.ProviderDropbox, func(_ domain.ConnectorConfig) (driven.Connector, error) {
		return mock, nil
	})

	connector, err := factory.Create(context.Background(), domain.ConnectorConfig{
		ID:       "conn-1",
		Provider: domain.ProviderDropbox,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderDropbox, connector.Provider())
}

func TestConnectorFactory_UnsupportedProvider(t *testing.T) {
	factory := NewConnectorFactory()

	_, err := factory.Create(context.Background(), domain.ConnectorConfig{
		Provider: domain.ProviderOneDrive,
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedProvider)
}

func TestConnectorFactory_BuilderError(t *testing.T) {
	factory := NewConnectorFactory()
	factory.Register(domain.ProviderGoogleDrive, func(_ domain.ConnectorConfig) (driven.Connector, error) {
		return nil, assert.AnError
	})

	_, err := factory.Create(context.Background(), domain.ConnectorConfig{
		Provider: domain.ProviderGoogleDrive,
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestConnectorFactory_SupportedProviders(t *testing.T) {
	factory := NewConnectorFactory()
	assert.Empty(t, factory.SupportedProviders())

	builder := func(_ domain.ConnectorConfig) (driven.Connector, error) { return nil, nil }
	factory.Register(domain.ProviderOneDrive, builder)
	factory.Register(domain.ProviderGoogleDrive, builder)

	providers := factory.SupportedProviders()
	require.Len(t, providers, 2)
	// Stable, sorted order.
	assert.Equal(t, domain.ProviderGoogleDrive, providers[0])
	assert.Equal(t, domain.ProviderOneDrive, providers[1])
}
