package service

import (
	"context"
	"errors"

	"github.com/yi-nology/asset_tracker/biz/dal/model"
	"github.com/yi-nology/asset_tracker/biz/model/api"
	"github.com/yi-nology/asset_tracker/pkg/database"
	apperrors "github.com/yi-nology/asset_tracker/pkg/errors"
	"github.com/yi-nology/asset_tracker/pkg/spreadsheet"
	"github.com/yi-nology/asset_tracker/pkg/validator"
	"gorm.io/gorm"
)

// ImportOptions tunes a reconciliation import.
type ImportOptions struct {
	// ReactivateRetired applies the create rule to every row. When false a
	// serial present on any row, active or retired, is skipped as a duplicate.
	ReactivateRetired bool
	Actor             string
}

// ImportRows applies rows one by one, each in its own transaction. A row
// rejected by business rules never aborts the batch. Cancellation stops at the
// next row boundary; rows already applied stay committed and Completed is
// false. Losing the backing store stops the batch too and the error is
// returned along with the partial result.
func (l *Logic) ImportRows(ctx context.Context, rows []spreadsheet.Row, opts ImportOptions) (*api.ImportResult, error) {
	result := &api.ImportResult{Rows: make([]api.ImportRow, 0, len(rows))}
	defer func() { result.Errors = result.Duplicates + result.Failed }()

	for _, row := range rows {
		if ctx.Err() != nil {
			return result, nil
		}
		outcome, err := l.importRow(ctx, row, opts)
		if err != nil {
			return result, err
		}
		if outcome.Outcome == "" {
			// Cancelled mid-row; the row's transaction rolled back.
			return result, nil
		}
		result.Rows = append(result.Rows, outcome)
		switch outcome.Outcome {
		case api.OutcomeImported:
			result.Imported++
		case api.OutcomeReactivated:
			result.Reactivated++
		case api.OutcomeDuplicate:
			result.Duplicates++
		case api.OutcomeFailed:
			result.Failed++
		}
	}
	result.Completed = true
	return result, nil
}

// importRow returns an empty outcome when ctx was cancelled mid-row and an
// error only when the store itself is unavailable.
func (l *Logic) importRow(ctx context.Context, row spreadsheet.Row, opts ImportOptions) (api.ImportRow, error) {
	out := api.ImportRow{Line: row.Line, Serial: row.Get(spreadsheet.ColumnSerial)}

	attrs, err := coerceRow(row)
	if err != nil {
		return failedRow(out, err), nil
	}
	out.Serial = attrs.Serial

	var created *CreateResult
	err = l.transaction(ctx, func(tx *gorm.DB) error {
		if !opts.ReactivateRetired {
			if _, err := l.assetDAO.FindBySerial(ctx, tx, attrs.Serial, false); err == nil {
				return apperrors.DuplicateActive(attrs.Serial)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		var err error
		created, err = l.createOrReactivate(ctx, tx, attrs, opts.Actor)
		return err
	})

	switch {
	case err == nil:
		out.AssetID = created.Asset.ID
		out.Outcome = api.OutcomeImported
		if created.Reactivated {
			out.Outcome = api.OutcomeReactivated
		}
	case errors.Is(err, apperrors.ErrDuplicateActive) || database.IsUniqueViolation(err):
		out.Outcome = api.OutcomeDuplicate
		out.Reason = apperrors.CodeDuplicateActive
	case ctx.Err() != nil:
		return api.ImportRow{}, nil
	case errors.Is(err, apperrors.ErrStorageUnavailable):
		return api.ImportRow{}, err
	default:
		return failedRow(out, err), nil
	}
	return out, nil
}

func failedRow(out api.ImportRow, err error) api.ImportRow {
	out.Outcome = api.OutcomeFailed
	out.Reason = apperrors.CodeOf(err)
	out.Error = err.Error()
	if appErr, ok := apperrors.IsAppError(err); ok {
		out.Error = appErr.Message
		if appErr.Err != nil {
			out.Error += ": " + appErr.Err.Error()
		}
	}
	return out
}

// coerceRow converts one sheet row into asset attributes.
func coerceRow(row spreadsheet.Row) (model.Attributes, error) {
	serial, ok := validator.SanitizeSerial(row.Get(spreadsheet.ColumnSerial))
	if !ok {
		return model.Attributes{}, apperrors.RowValidation(row.Line, spreadsheet.ColumnSerial, errors.New("missing or malformed serial"))
	}
	attrs := model.Attributes{
		Serial:   serial,
		Category: row.Get(spreadsheet.ColumnCategory),
		Model:    row.Get(spreadsheet.ColumnModel),
		AssetTag: row.Get(spreadsheet.ColumnAssetTag),
		Site:     row.Get(spreadsheet.ColumnSite),
	}
	if attrs.Category == "" {
		return attrs, apperrors.RowValidation(row.Line, spreadsheet.ColumnCategory, errors.New("value is required"))
	}
	if attrs.Model == "" {
		return attrs, apperrors.RowValidation(row.Line, spreadsheet.ColumnModel, errors.New("value is required"))
	}

	cost, err := spreadsheet.ParseDecimal(row.Get(spreadsheet.ColumnCost))
	if err != nil {
		return attrs, apperrors.RowValidation(row.Line, spreadsheet.ColumnCost, err)
	}
	if cost.IsNegative() {
		return attrs, apperrors.RowValidation(row.Line, spreadsheet.ColumnCost, errors.New("cost must not be negative"))
	}
	attrs.Cost = cost

	if attrs.PurchaseDate, err = spreadsheet.ParseDate(row.Get(spreadsheet.ColumnPurchaseDate)); err != nil {
		return attrs, apperrors.RowValidation(row.Line, spreadsheet.ColumnPurchaseDate, err)
	}
	if attrs.WarrantyEnd, err = spreadsheet.ParseDate(row.Get(spreadsheet.ColumnWarrantyEnd)); err != nil {
		return attrs, apperrors.RowValidation(row.Line, spreadsheet.ColumnWarrantyEnd, err)
	}
	return attrs, nil
}
