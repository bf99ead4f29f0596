package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists uploaded files on disk under a base directory,
// mirroring the /uploads static mount the API serves.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// SaveStream copies from reader into the target file under the base dir and
// returns the stored relative filename.
func (s *LocalStorage) SaveStream(filename string, r io.Reader) (string, error) {
	filename = sanitize(filename)
	path := filepath.Join(s.baseDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write upload stream: %w", err)
	}
	return filename, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(filename string) error {
	path := filepath.Join(s.baseDir, sanitize(filename))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Dir exposes the base directory for the static file mount.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

// sanitize strips any path components so an upload name cannot escape the
// base directory.
func sanitize(filename string) string {
	filename = filepath.Base(filename)
	return strings.TrimLeft(filename, ".")
}
