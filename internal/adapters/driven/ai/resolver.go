package ai

import (
	"fmt"
	"sync"

	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

// Ensure Resolver implements the interface.
var _ driven.EmbeddingResolver = (*Resolver)(nil)

// Resolver maps (embedding type, language) pairs to embedding services.
// English content resolves to the configured default model; other
// languages resolve to the multilingual model when one is set. Services
// are created lazily and cached per model, so two languages served by
// the same model share one service.
type Resolver struct {
	mu       sync.Mutex
	settings domain.EmbeddingSettings
	services map[string]driven.EmbeddingService
}

// NewResolver creates a resolver over the given embedding settings.
func NewResolver(settings domain.EmbeddingSettings) *Resolver {
	return &Resolver{
		settings: settings,
		services: make(map[string]driven.EmbeddingService),
	}
}

// Resolve returns the embedding service for (embeddingType, language).
// An empty embeddingType selects the configured provider; a non-empty
// one must name that provider.
func (r *Resolver) Resolve(embeddingType, language string) (driven.EmbeddingService, error) {
	if !r.settings.IsConfigured() {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}
	if embeddingType != "" && embeddingType != r.settings.Provider.String() {
		return nil, fmt.Errorf("%w: embedding type %q is not configured (provider is %s)",
			domain.ErrEmbeddingUnavailable, embeddingType, r.settings.Provider)
	}

	model := r.settings.ModelFor(language)
	if model == "" {
		if defaults, ok := domain.DefaultEmbeddingModels()[r.settings.Provider]; ok {
			model = defaults
		}
	}
	if model == "" {
		return nil, fmt.Errorf("%w: no embedding model configured", domain.ErrEmbeddingUnavailable)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if svc, ok := r.services[model]; ok {
		return svc, nil
	}

	svc, err := createEmbeddingService(&r.settings, model)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	r.services[model] = svc
	return svc, nil
}

// Close releases every cached service.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for model, svc := range r.services {
		svc.Close()
		delete(r.services, model)
	}
	return nil
}
