package platform

import (
	"strings"
)

// MimeTypesMatch returns true if the guessed mime type is compatible
// with the expected one. libmagic reports XML files as text/xml or
// application/xml and plain text as text/plain, so anything in the
// same family counts. An empty guess means mime sniffing is disabled
// and always matches.
func MimeTypesMatch(expected, guessed string) bool {
	if guessed == "" || expected == guessed {
		return true
	}
	if strings.HasSuffix(expected, "xml") && strings.HasSuffix(guessed, "xml") {
		return true
	}
	return strings.HasPrefix(expected, "text/") && strings.HasPrefix(guessed, "text/")
}
