package connectors

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{ err error }

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestSaveStream(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.txt")

	err := SaveStream(dest, strings.NewReader("hello"))
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestSaveStream_ReadFailureRemovesPartial(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out.txt")

	err := SaveStream(dest, &failingReader{err: errors.New("network reset")})
	require.Error(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSaveStream_BadDestination(t *testing.T) {
	err := SaveStream(filepath.Join(t.TempDir(), "missing", "out.txt"), strings.NewReader("x"))
	assert.Error(t, err)
}
