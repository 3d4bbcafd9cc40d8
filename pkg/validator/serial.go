package validator

import (
	"regexp"
	"strings"
)

// MaxSerialLength matches the width of the serial column.
const MaxSerialLength = 128

// serialRegexp accepts printable serials: letters, digits and the separators
// vendors commonly use.
var serialRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/:#-]*$`)

// SanitizeSerial trims whitespace and validates the serial number.
// Returns the sanitized serial and a boolean indicating if it's valid.
func SanitizeSerial(serial string) (string, bool) {
	trimmed := strings.TrimSpace(serial)
	if trimmed == "" || len(trimmed) > MaxSerialLength {
		return trimmed, false
	}
	return trimmed, serialRegexp.MatchString(trimmed)
}
