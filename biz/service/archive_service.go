package service

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/yi-nology/asset_tracker/biz/model/api"
	"github.com/yi-nology/asset_tracker/pkg/constants"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
	"github.com/yi-nology/asset_tracker/pkg/spreadsheet"
	"go.uber.org/zap"
)

// ArchiveFile is an archived upload or snapshot read back from storage.
type ArchiveFile struct {
	Key         string
	Name        string
	ContentType string
	Data        []byte
}

// ListArchives returns archived uploads and snapshots under prefix.
// Without configured storage the list is empty.
func (s *Service) ListArchives(ctx context.Context, prefix string) ([]api.Archive, error) {
	if s.storage == nil {
		return []api.Archive{}, nil
	}
	if prefix == "" {
		prefix = constants.ImportArchivePrefix
	}
	objects, err := s.storage.ListObjects(ctx, prefix)
	if err != nil {
		return nil, apperrors.Internal(err, "list archives")
	}
	out := make([]api.Archive, 0, len(objects))
	for _, o := range objects {
		out = append(out, api.Archive{
			Key:          o.Key,
			Size:         o.Size,
			LastModified: o.LastModified.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}

// FetchArchive reads one archived object back.
func (s *Service) FetchArchive(ctx context.Context, rawKey string) (*ArchiveFile, error) {
	key, err := s.lookupArchive(ctx, rawKey)
	if err != nil {
		return nil, err
	}
	rc, err := s.storage.GetObject(ctx, key)
	if err != nil {
		return nil, apperrors.Internal(err, "open archive")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.Internal(err, "read archive")
	}
	return &ArchiveFile{
		Key:         key,
		Name:        path.Base(key),
		ContentType: spreadsheet.ContentType(strings.TrimPrefix(path.Ext(key), ".")),
		Data:        data,
	}, nil
}

// DeleteArchive removes one archived object.
func (s *Service) DeleteArchive(ctx context.Context, rawKey string) error {
	key, err := s.lookupArchive(ctx, rawKey)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		return apperrors.Internal(err, "delete archive")
	}
	s.log.Info("archive deleted", zap.String("key", key))
	return nil
}

// lookupArchive validates rawKey and checks the object exists.
func (s *Service) lookupArchive(ctx context.Context, rawKey string) (string, error) {
	key, err := archiveKey(rawKey)
	if err != nil {
		return "", err
	}
	if s.storage == nil {
		return "", apperrors.ArchiveNotFound(key)
	}
	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return "", apperrors.Internal(err, "stat archive")
	}
	if !exists {
		return "", apperrors.ArchiveNotFound(key)
	}
	return key, nil
}

// archiveKey accepts clean keys naming a file under imports/ or exports/.
func archiveKey(raw string) (string, error) {
	key := strings.TrimPrefix(strings.TrimSpace(raw), "/")
	underArchive := strings.HasPrefix(key, constants.ImportArchivePrefix) ||
		strings.HasPrefix(key, constants.ExportArchivePrefix)
	if !underArchive || path.Clean(key) != key {
		return "", apperrors.Validation("key must name a file under imports/ or exports/",
			apperrors.FieldError{Field: "key", Code: "invalid"})
	}
	return key, nil
}
