package ai

import (
	"github.com/driftline/docsync/internal/core/domain"
	"github.com/driftline/docsync/internal/core/ports/driven"
)

// Ensure Validator implements the interface.
var _ driven.AIConfigValidator = (*Validator)(nil)

// Validator checks AI settings by creating and pinging the described
// service.
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEmbedding pings the embedding service described by the
// settings.
func (v *Validator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(settings)
}

// ValidateLLM pings the LLM service described by the settings.
func (v *Validator) ValidateLLM(settings *domain.LLMSettings) error {
	return ValidateLLMConfig(settings)
}
