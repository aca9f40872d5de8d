// Package storage provides temporary file allocation on local disk and
// optional publication of produced files to S3.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for temporary and published file storage.
// Temporary paths are unique per call, so concurrent pipelines never share one.
type Storage interface {
	// TempPath returns a fresh path inside the temp directory. The file is
	// not created. name is used as a prefix and ext as the extension.
	TempPath(name, ext string) (path string, err error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// UploadToS3 uploads data to S3 and returns the object URL.
	// Returns ErrS3NotConfigured if S3 is not configured.
	UploadToS3(ctx context.Context, key string, data io.Reader) (url string, err error)
}
