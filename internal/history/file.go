package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend keeps the history document in a local JSON file.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend writing to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Name implements Backend.
func (b *FileBackend) Name() string {
	return "file"
}

// Path returns the file location.
func (b *FileBackend) Path() string {
	return b.path
}

// Load implements Backend.
func (b *FileBackend) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}
	return data, nil
}

// Save writes through a temporary file and renames it into place so a crash
// never leaves a truncated document behind.
func (b *FileBackend) Save(ctx context.Context, data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", b.path, err)
	}
	return nil
}
