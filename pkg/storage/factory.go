package storage

import (
	"fmt"

	"github.com/yi-nology/asset_tracker/pkg/config"
	"github.com/yi-nology/asset_tracker/pkg/storage/local"
	"github.com/yi-nology/asset_tracker/pkg/storage/s3"
)

// New creates a storage adapter based on configuration.
// Returns nil, nil when archiving is disabled (type "none" or empty).
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil

	case "local":
		basePath := cfg.Local.BasePath
		if basePath == "" {
			basePath = "data/archive"
		}
		st, err := local.New(basePath)
		if err != nil {
			return nil, err
		}
		return st, nil

	case "s3":
		st, err := s3.New(s3.Config{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
