// Package spreadsheet converts between uploaded xlsx/csv files and named-field
// rows, and renders tabular snapshots back to xlsx or csv.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Supported formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Canonical column names.
const (
	ColumnCategory     = "category"
	ColumnModel        = "model"
	ColumnSerial       = "serial"
	ColumnAssetTag     = "asset_tag"
	ColumnSite         = "site"
	ColumnCost         = "cost"
	ColumnPurchaseDate = "purchase_date"
	ColumnWarrantyEnd  = "warranty_end"
)

// RequiredColumns must be present in every import header.
var RequiredColumns = []string{ColumnCategory, ColumnModel, ColumnSerial}

// headerAliases maps normalized header spellings to canonical columns.
var headerAliases = map[string]string{
	"category":           ColumnCategory,
	"categoria":          ColumnCategory,
	"type":               ColumnCategory,
	"tipo":               ColumnCategory,
	"model":              ColumnModel,
	"modelo":             ColumnModel,
	"serial":             ColumnSerial,
	"serial_number":      ColumnSerial,
	"serie":              ColumnSerial,
	"numero_de_serie":    ColumnSerial,
	"sn":                 ColumnSerial,
	"asset_tag":          ColumnAssetTag,
	"tag":                ColumnAssetTag,
	"etiqueta":           ColumnAssetTag,
	"num_activo":         ColumnAssetTag,
	"n_activo":           ColumnAssetTag,
	"site":               ColumnSite,
	"location":           ColumnSite,
	"delegacion":         ColumnSite,
	"sede":               ColumnSite,
	"cost":               ColumnCost,
	"costo":              ColumnCost,
	"coste":              ColumnCost,
	"price":              ColumnCost,
	"precio":             ColumnCost,
	"purchase_date":      ColumnPurchaseDate,
	"fecha_compra":       ColumnPurchaseDate,
	"fecha_de_compra":    ColumnPurchaseDate,
	"warranty_end":       ColumnWarrantyEnd,
	"warranty":           ColumnWarrantyEnd,
	"fin_garantia":       ColumnWarrantyEnd,
	"garantia":           ColumnWarrantyEnd,
	"fecha_fin_garantia": ColumnWarrantyEnd,
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n", "ü", "u",
)

// Row is one data line of an uploaded sheet, keyed by canonical column.
type Row struct {
	// Line is the 1-based line number in the source file, header included.
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of column, empty when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

// Read decodes an uploaded file into rows. Blank lines are skipped and
// unknown columns are ignored.
func Read(r io.Reader, format string) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	case FormatCSV:
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("spreadsheet is empty")
	}

	columns := make([]string, len(records[0]))
	seen := make(map[string]bool)
	for i, h := range records[0] {
		if canonical, ok := headerAliases[NormalizeHeader(h)]; ok && !seen[canonical] {
			columns[i] = canonical
			seen[canonical] = true
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		fields := make(map[string]string, len(seen))
		for j, value := range record {
			if j < len(columns) && columns[j] != "" {
				fields[columns[j]] = strings.TrimSpace(value)
			}
		}
		rows = append(rows, Row{Line: i + 2, Fields: fields})
	}
	return rows, nil
}

// NormalizeHeader lowercases a header, folds Spanish accents and joins words
// with underscores.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = accentReplacer.Replace(h)
	h = strings.NewReplacer(" ", "_", "-", "_", ".", "", "º", "", "°", "").Replace(h)
	for strings.Contains(h, "__") {
		h = strings.ReplaceAll(h, "__", "_")
	}
	return strings.Trim(h, "_")
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if firstLine, _, _ := bytes.Cut(data, []byte("\n")); bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		reader.Comma = ';'
	}
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
