package storage

import (
	"context"
	"fmt"

	"github.com/zfogg/snapshare/internal/config"
)

// Backend persists uploaded media and returns a retrievable URL.
// Implementations are constructed once at startup and shared read-only.
type Backend interface {
	// Put stores data under name and returns the URL clients fetch it from
	Put(ctx context.Context, data []byte, name, contentType string) (string, error)
	// EnsureContainerExists idempotently provisions the named container.
	// Concurrent callers racing to create it must all succeed.
	EnsureContainerExists(ctx context.Context, name string) error
	// ContainerName is the container Put writes into
	ContainerName() string
	// Name identifies the backend in logs and metrics
	Name() string
}

// NewBackend selects the storage backend from configuration
func NewBackend(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	switch cfg.Backend {
	case config.StorageLocal, "":
		return NewLocalBackend(cfg.UploadDir, cfg.UploadURLPrefix), nil
	case config.StorageS3:
		return NewS3Backend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
