package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order. Day-first layouts precede month-first ones.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"01-02-06",
	"2006/01/02",
}

// ParseDate parses a cell into a date. Empty input yields nil.
// Bare numbers are read as Excel serial dates.
func ParseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", value, err)
		}
		d := truncateDay(t)
		return &d, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			d := truncateDay(t)
			return &d, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", value)
}

// ParseDecimal parses a cost cell. Currency symbols and spaces are dropped,
// and a lone comma is read as the decimal separator. Empty input yields zero.
func ParseDecimal(value string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("€", "", "$", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return decimal.Zero, nil
	}
	switch {
	case strings.Contains(cleaned, ",") && strings.Contains(cleaned, "."):
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case strings.Contains(cleaned, ","):
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", value)
	}
	return d, nil
}

// FormatDate renders an optional date for export.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
