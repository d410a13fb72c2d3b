package util

import (
	"fmt"
	"io"
	"mime/multipart"
)

// ReadUploadedFile reads at most limit+1 bytes of an uploaded file, so
// callers can still tell an oversized file apart without buffering all of it.
// The declared content type comes from the part header.
func ReadUploadedFile(file *multipart.FileHeader, limit int64) ([]byte, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}

	return data, file.Header.Get("Content-Type"), nil
}
