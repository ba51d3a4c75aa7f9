package storage

import (
	"context"
)

// ExportUploader stores generated export files and returns a download link.
// This interface allows for easy mocking in tests
type ExportUploader interface {
	UploadExport(ctx context.Context, data []byte, userID, filename string) (*UploadResult, error)
}

// Ensure S3Uploader implements ExportUploader
var _ ExportUploader = (*S3Uploader)(nil)
