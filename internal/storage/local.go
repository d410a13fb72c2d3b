package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend writes media under a directory that the HTTP server serves statically
type LocalBackend struct {
	dir       string
	urlPrefix string
}

// NewLocalBackend creates a backend rooted at dir whose files are served under urlPrefix
func NewLocalBackend(dir, urlPrefix string) *LocalBackend {
	if urlPrefix == "" {
		urlPrefix = "/uploads"
	}
	return &LocalBackend{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}
}

// Put writes data to <dir>/<name> and returns <urlPrefix>/<name>
func (b *LocalBackend) Put(ctx context.Context, data []byte, name, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid object name %q", name)
	}

	if err := os.WriteFile(filepath.Join(b.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return b.urlPrefix + "/" + name, nil
}

// EnsureContainerExists creates the upload directory. MkdirAll tolerates
// the directory already existing, so concurrent first uploads are safe.
func (b *LocalBackend) EnsureContainerExists(ctx context.Context, name string) error {
	if err := os.MkdirAll(name, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

// ContainerName returns the upload directory
func (b *LocalBackend) ContainerName() string {
	return b.dir
}

// Name returns "local"
func (b *LocalBackend) Name() string {
	return "local"
}
