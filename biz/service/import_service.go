package service

import (
	"bytes"
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yi-nology/asset_tracker/biz/model/api"
	"github.com/yi-nology/asset_tracker/pkg/common"
	"github.com/yi-nology/asset_tracker/pkg/constants"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
	"github.com/yi-nology/asset_tracker/pkg/lock"
	"github.com/yi-nology/asset_tracker/pkg/spreadsheet"
	"go.uber.org/zap"
)

// ImportSpreadsheet reconciles an uploaded xlsx or csv file against the
// inventory. The upload is archived first when storage is configured.
func (s *Service) ImportSpreadsheet(ctx context.Context, fileName string, data []byte) (*api.ImportResult, error) {
	format, err := s.upload.Validate(fileName, data)
	if err != nil {
		return nil, apperrors.Validation(err.Error(), apperrors.FieldError{Field: "file", Code: "invalid"})
	}
	rows, err := spreadsheet.Read(bytes.NewReader(data), format)
	if err != nil {
		return nil, apperrors.Validation(err.Error(), apperrors.FieldError{Field: "file", Code: "unreadable"})
	}

	batchID := uuid.NewString()
	log := s.log.With(zap.String("batch_id", batchID), zap.String("file", fileName))
	archive := s.archiveUpload(ctx, log, batchID, fileName, format, data)

	var result *api.ImportResult
	start := time.Now()
	err = lock.WithLock(ctx, s.locker, func(ctx context.Context) error {
		var err error
		result, err = s.logic.ImportRows(ctx, rows, ImportOptions{
			ReactivateRetired: s.reactivateRetired,
			Actor:             common.GetActor(ctx),
		})
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, lock.ErrTimeout):
			return nil, apperrors.ImportBusy(err)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.Is(err, apperrors.ErrStorageUnavailable):
			fields := []zap.Field{zap.Error(err)}
			if result != nil {
				s.observeImportRows(result)
				fields = append(fields,
					zap.Int("applied", result.Imported+result.Reactivated),
					zap.Int("processed", len(result.Rows)))
			}
			log.Error("import aborted", fields...)
			return nil, err
		}
		return nil, apperrors.Internal(err, "acquire import lock")
	}

	result.BatchID = batchID
	result.Archive = archive
	s.observeImportRows(result)
	s.metrics.ObserveImportRun()

	log.Info("import finished",
		zap.Int("rows", len(rows)),
		zap.Int("imported", result.Imported),
		zap.Int("reactivated", result.Reactivated),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("failed", result.Failed),
		zap.Bool("completed", result.Completed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (s *Service) observeImportRows(result *api.ImportResult) {
	for _, row := range result.Rows {
		s.metrics.ObserveImportRow(row.Outcome)
	}
}

// archiveUpload stores the raw upload under imports/{batch}/{name}. A failed
// archive is logged and does not block the import.
func (s *Service) archiveUpload(ctx context.Context, log *zap.Logger, batchID, fileName, format string, data []byte) string {
	if s.storage == nil {
		return ""
	}
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload." + format
	}
	key := constants.ImportArchivePrefix + batchID + "/" + name
	if err := s.storage.PutObject(ctx, key, bytes.NewReader(data), spreadsheet.ContentType(format), int64(len(data))); err != nil {
		log.Warn("archive upload failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}
