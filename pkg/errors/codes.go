package errors

import (
	"fmt"
	"net/http"
)

const (
	KindRejected = "rejected"
	KindFailure  = "failure"
)

// Asset lifecycle error codes.
const (
	CodeDuplicateActive = "ASSET_DUPLICATE_ACTIVE"
	CodeAssetNotFound   = "ASSET_NOT_FOUND"
	CodeAssetInactive   = "ASSET_INACTIVE"
	CodeArchiveNotFound = "ARCHIVE_NOT_FOUND"
)

// Input error codes.
const (
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeRowValidationFailed = "ROW_VALIDATION_FAILED"
	CodeUnauthorized        = "UNAUTHORIZED"
)

// System error codes.
const (
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeImportBusy         = "IMPORT_IN_PROGRESS"
	CodeInternal           = "INTERNAL"
)

// Sentinels for errors.Is. Never mutate or return these directly; use the
// constructors, which build fresh values with the same code.
var (
	ErrDuplicateActive    = New(CodeDuplicateActive, "serial already held by an active asset", http.StatusConflict)
	ErrNotFound           = New(CodeAssetNotFound, "asset not found", http.StatusNotFound)
	ErrAssetInactive      = New(CodeAssetInactive, "asset is retired", http.StatusConflict)
	ErrArchiveNotFound    = New(CodeArchiveNotFound, "archive not found", http.StatusNotFound)
	ErrValidation         = New(CodeValidationFailed, "validation failed", http.StatusBadRequest)
	ErrRowValidation      = New(CodeRowValidationFailed, "row validation failed", http.StatusUnprocessableEntity)
	ErrUnauthorized       = New(CodeUnauthorized, "authentication required", http.StatusUnauthorized)
	ErrStorageUnavailable = New(CodeStorageUnavailable, "storage unavailable", http.StatusServiceUnavailable)
	ErrImportBusy         = New(CodeImportBusy, "another import is running", http.StatusConflict)
	ErrInternal           = New(CodeInternal, "internal error", http.StatusInternalServerError)
)

// DuplicateActive reports that serial is held by another active asset.
func DuplicateActive(serial string) *AppError {
	return New(CodeDuplicateActive, fmt.Sprintf("serial %q already held by an active asset", serial), http.StatusConflict).
		WithParams(map[string]interface{}{"serial": serial})
}

// AssetNotFound reports a missing asset id.
func AssetNotFound(id uint) *AppError {
	return New(CodeAssetNotFound, fmt.Sprintf("asset %d not found", id), http.StatusNotFound).
		WithParams(map[string]interface{}{"id": id})
}

// AssetInactive reports a lifecycle transition attempted on a retired asset.
func AssetInactive(id uint) *AppError {
	return New(CodeAssetInactive, fmt.Sprintf("asset %d is retired", id), http.StatusConflict).
		WithParams(map[string]interface{}{"id": id})
}

// ArchiveNotFound reports a storage key with no archived object behind it.
func ArchiveNotFound(key string) *AppError {
	return New(CodeArchiveNotFound, fmt.Sprintf("archive %q not found", key), http.StatusNotFound).
		WithParams(map[string]interface{}{"key": key})
}

// Validation reports a malformed command.
func Validation(message string, fields ...FieldError) *AppError {
	return New(CodeValidationFailed, message, http.StatusBadRequest).WithFieldErrors(fields)
}

// RowValidation reports an import row whose field could not be coerced.
func RowValidation(row int, field string, err error) *AppError {
	return Wrap(err, CodeRowValidationFailed, fmt.Sprintf("row %d: invalid %s", row, field), http.StatusUnprocessableEntity).
		WithParams(map[string]interface{}{"row": row, "field": field})
}

// Unauthorized reports a failed authentication gate.
func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

// StorageUnavailable wraps a connectivity failure of the backing store.
func StorageUnavailable(err error) *AppError {
	return Wrap(err, CodeStorageUnavailable, "storage unavailable", http.StatusServiceUnavailable)
}

// ImportBusy reports that the import lock is held elsewhere.
func ImportBusy(err error) *AppError {
	return Wrap(err, CodeImportBusy, "another import is running", http.StatusConflict)
}

// Internal wraps an unexpected failure.
func Internal(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message, http.StatusInternalServerError)
}
