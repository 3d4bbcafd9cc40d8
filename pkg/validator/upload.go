package validator

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// Default upload constraints
const (
	DefaultMaxUploadSize = 10 * 1024 * 1024 // 10MB
)

// Spreadsheet formats accepted for import.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// sniffedTypes maps what http.DetectContentType reports to the format it can
// carry. xlsx files are zip archives; CSV sniffs as plain text.
var sniffedTypes = map[string]string{
	"application/zip":          FormatXLSX,
	"text/plain":               FormatCSV,
	"text/csv":                 FormatCSV,
	"application/octet-stream": "",
}

// UploadConfig defines constraints for spreadsheet uploads.
type UploadConfig struct {
	MaxFileSize int64
}

// DefaultUploadConfig returns the default upload configuration.
func DefaultUploadConfig() *UploadConfig {
	return &UploadConfig{MaxFileSize: DefaultMaxUploadSize}
}

// ValidateFileSize checks if the file size is within the allowed limit.
func (c *UploadConfig) ValidateFileSize(size int64) error {
	if size <= 0 {
		return errors.New("file is empty")
	}
	if size > c.MaxFileSize {
		return errors.New("file too large")
	}
	return nil
}

// DetectFormat decides whether an upload is xlsx or csv from its extension,
// and checks the sniffed content agrees.
func (c *UploadConfig) DetectFormat(fileName string, data []byte) (string, error) {
	var format string
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		format = FormatXLSX
	case ".csv":
		format = FormatCSV
	default:
		return "", errors.New("unsupported file type: expected .xlsx or .csv")
	}

	detected := http.DetectContentType(data)
	if idx := strings.Index(detected, ";"); idx > 0 {
		detected = strings.TrimSpace(detected[:idx])
	}
	sniffed, known := sniffedTypes[detected]
	if !known {
		return "", errors.New("unsupported file content: " + detected)
	}
	if sniffed != "" && sniffed != format {
		return "", errors.New("file content does not match its extension")
	}
	return format, nil
}

// Validate performs full validation on an upload and returns its format.
func (c *UploadConfig) Validate(fileName string, data []byte) (string, error) {
	if err := c.ValidateFileSize(int64(len(data))); err != nil {
		return "", err
	}
	return c.DetectFormat(fileName, data)
}
