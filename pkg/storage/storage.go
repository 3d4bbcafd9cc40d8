// Package storage archives uploaded import files and export snapshots on the
// local filesystem or S3-compatible object storage (AWS S3, MinIO).
package storage

import (
	"context"
	"io"

	"github.com/yi-nology/asset_tracker/pkg/storage/object"
)

// ObjectInfo describes one archived object.
type ObjectInfo = object.Info

// Storage defines the interface for object storage operations.
type Storage interface {
	// PutObject uploads data under key, e.g. "imports/{batchID}/{fileName}".
	PutObject(ctx context.Context, key string, data io.Reader, contentType string, size int64) error

	// GetObject retrieves an object. The caller closes the reader.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	// DeleteObject removes an object. Missing objects are not an error.
	DeleteObject(ctx context.Context, key string) error

	// ObjectExists checks if an object exists.
	ObjectExists(ctx context.Context, key string) (bool, error)

	// ListObjects returns objects whose key starts with prefix, sorted by key.
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Type returns the storage type identifier ("local" or "s3").
	Type() string
}
