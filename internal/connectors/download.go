package connectors

import (
	"fmt"
	"io"
	"os"
)

// SaveStream copies r to destPath. On any failure the partial file is
// removed so callers never observe a truncated download at destPath.
func SaveStream(destPath string, r io.Reader) error {
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(destPath)
		return fmt.Errorf("write %s: %w", destPath, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("close %s: %w", destPath, err)
	}

	return nil
}
