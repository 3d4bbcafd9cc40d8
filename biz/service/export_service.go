package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yi-nology/asset_tracker/pkg/constants"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
	"github.com/yi-nology/asset_tracker/pkg/spreadsheet"
	"go.uber.org/zap"
)

// ExportFile is a rendered inventory snapshot.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
	// Archive is the storage key of the archived copy, if any.
	Archive string
}

// ExportSpreadsheet renders every active asset as xlsx or csv. Nothing is
// mutated; with archive set and storage configured a copy is kept under
// exports/.
func (s *Service) ExportSpreadsheet(ctx context.Context, format string, archive bool) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = spreadsheet.FormatXLSX
	}
	if format != spreadsheet.FormatXLSX && format != spreadsheet.FormatCSV {
		return nil, apperrors.Validation("format must be xlsx or csv", apperrors.FieldError{Field: "format", Code: "oneof"})
	}

	assets, err := s.logic.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.SetActiveAssets(len(assets))

	table := spreadsheet.Table{Sheet: constants.ExportSheetName, Header: constants.ExportHeader}
	for _, a := range assets {
		table.Rows = append(table.Rows, []interface{}{
			a.ID,
			a.Category,
			a.Model,
			a.Serial,
			a.AssetTag,
			a.Site,
			a.Cost.StringFixed(2),
			spreadsheet.FormatDate(a.PurchaseDate),
			spreadsheet.FormatDate(a.WarrantyEnd),
			a.Status,
			a.AssignedUser,
			a.CreatedAt.UTC().Format(time.RFC3339),
			a.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	var buf bytes.Buffer
	if err := spreadsheet.Write(&buf, format, table); err != nil {
		return nil, apperrors.Internal(err, "render export")
	}
	file := &ExportFile{
		Name:        constants.ExportFileBase + "." + format,
		ContentType: spreadsheet.ContentType(format),
		Data:        buf.Bytes(),
	}

	if archive && s.storage != nil {
		key := fmt.Sprintf("%s%s_%s.%s", constants.ExportArchivePrefix, constants.ExportFileBase,
			time.Now().UTC().Format("20060102T150405Z"), format)
		if err := s.storage.PutObject(ctx, key, bytes.NewReader(file.Data), file.ContentType, int64(len(file.Data))); err != nil {
			s.log.Warn("archive export failed", zap.String("key", key), zap.Error(err))
		} else {
			file.Archive = key
		}
	}
	return file, nil
}
