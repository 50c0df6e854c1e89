package metadata

import (
	"github.com/etdloader/etdloader/constants"
	"strings"
)

// NormalizeAuthor turns an author name into the base name used for
// every file derived from a record. It trims the name, turns spaces
// into hyphens and drops everything else that isn't a letter, digit
// or hyphen. "Jane Anne O'Foo" becomes "Jane-Anne-OFoo".
func NormalizeAuthor(author string) string {
	normalized := strings.Replace(strings.TrimSpace(author), " ", "-", -1)
	return constants.NonAuthorChars.ReplaceAllString(normalized, "")
}
