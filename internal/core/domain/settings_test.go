package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkingSettings_MaxChunkSize(t *testing.T) {
	c := ChunkingSettings{ChunkSize: 1000}
	assert.Equal(t, 2000, c.MaxChunkSize())

	c.ChunkSize = 300
	assert.Equal(t, 600, c.MaxChunkSize())
}

func TestDefaultAppSettings_ChunkingCeiling(t *testing.T) {
	s := DefaultAppSettings()
	assert.Equal(t, 2*s.Chunking.ChunkSize, s.Chunking.MaxChunkSize())
}
