package metadata

import (
	"strings"
)

// FormatEmbargoDate turns the vendor's delayed release value,
// "2025-06-01 00:00:00", into "2025-06-01T00:00:00Z". The value is
// not otherwise checked or converted.
func FormatEmbargoDate(value string) string {
	return strings.Replace(strings.TrimSpace(value), " ", "T", 1) + "Z"
}

// IsFalsy returns true for the open access indicator values that
// mean the author did not agree to open access.
func IsFalsy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "n":
		return true
	}
	return false
}
