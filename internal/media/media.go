package media

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	apierrors "github.com/zfogg/snapshare/internal/errors"
	"github.com/zfogg/snapshare/internal/logger"
	"github.com/zfogg/snapshare/internal/metrics"
	"github.com/zfogg/snapshare/internal/storage"
	"github.com/zfogg/snapshare/internal/telemetry"
	"go.uber.org/zap"
)

// MaxUploadSize is the largest accepted upload (10 MiB, inclusive)
const MaxUploadSize = 10 << 20

const defaultExtension = "jpg"

// IngestResult is a stored upload. Base64 is the original bytes, handed to
// image analysis without fetching the object back from storage.
type IngestResult struct {
	URL      string `json:"url"`
	Base64   string `json:"base64"`
	Filename string `json:"filename"`
}

// Service validates, names and stores uploaded images
type Service struct {
	backend     storage.Backend
	provisioned atomic.Bool
}

// NewService creates a media service writing through backend
func NewService(backend storage.Backend) *Service {
	return &Service{backend: backend}
}

// Ingest validates an upload, stores it under a fresh unique name and
// returns its URL with the base64 of the original bytes
func (s *Service) Ingest(ctx context.Context, data []byte, originalFilename, contentType string) (res *IngestResult, err error) {
	ctx, span := telemetry.TraceIngest(ctx, s.backend.Name(), len(data))
	defer func() { telemetry.EndSpan(span, err) }()

	if err := Validate(data, contentType); err != nil {
		metrics.RecordIngestion(s.backend.Name(), "rejected", len(data))
		return nil, err
	}

	if err := s.ensureProvisioned(ctx); err != nil {
		metrics.RecordIngestion(s.backend.Name(), "error", len(data))
		return nil, err
	}

	filename := uuid.NewString() + "." + extension(originalFilename)

	url, err := s.backend.Put(ctx, data, filename, contentType)
	if err != nil {
		metrics.RecordIngestion(s.backend.Name(), "error", len(data))
		logger.Error("Failed to store upload", err, logger.WithUpload(s.backend.Name(), filename, len(data)))
		return nil, apierrors.StorageFailure("store upload", err)
	}

	metrics.RecordIngestion(s.backend.Name(), "stored", len(data))
	logger.Log.Debug("Stored upload", logger.WithUpload(s.backend.Name(), filename, len(data)))

	return &IngestResult{
		URL:      url,
		Base64:   base64.StdEncoding.EncodeToString(data),
		Filename: filename,
	}, nil
}

// ensureProvisioned provisions the backend container once per process.
// Concurrent first calls may each provision; the backend tolerates that.
func (s *Service) ensureProvisioned(ctx context.Context) error {
	if s.provisioned.Load() {
		return nil
	}

	err := s.backend.EnsureContainerExists(ctx, s.backend.ContainerName())
	metrics.RecordProvisioning(s.backend.Name(), err)
	if err != nil {
		logger.Error("Failed to provision storage container", err,
			zap.String("backend", s.backend.Name()),
			zap.String("container", s.backend.ContainerName()))
		return apierrors.StorageFailure("provision storage", err)
	}

	s.provisioned.Store(true)
	return nil
}

// Validate applies the upload checks in order: presence, type, size
func Validate(data []byte, contentType string) error {
	if len(data) == 0 {
		return apierrors.ValidationFailed("file", "no file")
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return apierrors.ValidationFailed("file", "not an image")
	}
	if len(data) > MaxUploadSize {
		return apierrors.ValidationFailed("file", "file too large")
	}
	return nil
}

// extension returns the lower-cased extension of name without the dot,
// or jpg when there is none
func extension(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(filepath.Base(name)), ".")
	ext = strings.ToLower(ext)
	if ext == "" || strings.ContainsAny(ext, `/\ `) {
		return defaultExtension
	}
	return ext
}
