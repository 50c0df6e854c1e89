package util

import (
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"path"
	"regexp"
	"strings"
)

var reLegal *regexp.Regexp = regexp.MustCompile("^[A-Za-z0-9\\-_\\.]+$")

// RecordNameFromArchive returns the record name for an archive: the
// base file name with its extension stripped. For example,
// "/incoming/etdadmin_upload_362114.zip" becomes "etdadmin_upload_362114".
func RecordNameFromArchive(pathToArchive string) string {
	fileName := path.Base(pathToArchive)
	ext := path.Ext(fileName)
	return strings.TrimSuffix(fileName, ext)
}

// Extension returns the last three characters of fileName, lowercased.
// ETD vendors do not always send lowercase extensions, and we do not
// trust anything before the last three characters (".PDF", "x.pdf",
// and "thesis_pdf" all end in pdf).
func Extension(fileName string) string {
	if len(fileName) < 3 {
		return strings.ToLower(fileName)
	}
	return strings.ToLower(fileName[len(fileName)-3:])
}

// LooksLikeArchive returns true if name ends with the archive extension.
func LooksLikeArchive(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), constants.ArchiveExtension)
}

// HasLegalName returns true if name contains only letters, digits,
// hyphens, underscores and dots.
func HasLegalName(name string) bool {
	return reLegal.MatchString(name)
}

// LooksLikeURL returns true if url looks like a URL.
func LooksLikeURL(url string) bool {
	reUrl := regexp.MustCompile(`^(https?:\/\/)?([\da-z\.-]+)(:\d+)?([\/\w \.-]*)*\/?$`)
	return reUrl.Match([]byte(url))
}

// LooksLikePID returns true if pid looks like a Fedora PID,
// such as "etd:1234" or "etd:a1b2c3d4-0000-4000-a000-000000000001".
func LooksLikePID(pid string) bool {
	rePID := regexp.MustCompile(`^[A-Za-z0-9\-\.]+:[A-Za-z0-9\-\.~_%]+$`)
	return rePID.MatchString(pid)
}

// Cleans a string we might find a config file, trimming leading
// and trailing spaces, single quotes and double quoted. Note that
// leading and trailing spaces inside the quotes are not trimmed.
func CleanString(str string) string {
	cleanStr := strings.TrimSpace(str)
	// Strip leading and traling quotes, but only if string has matching
	// quotes at both ends.
	if strings.HasPrefix(cleanStr, "'") && strings.HasSuffix(cleanStr, "'") ||
		strings.HasPrefix(cleanStr, "\"") && strings.HasSuffix(cleanStr, "\"") {
		return cleanStr[1 : len(cleanStr)-1]
	}
	return cleanStr
}

// StripControlCharacters removes every byte in the range 0-31 from str.
// That includes tabs and newlines. Fedora's full text index chokes on
// the form feeds pdftotext writes between pages.
func StripControlCharacters(str string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0 && r <= 31 {
			return -1
		}
		return r
	}, str)
}

// ContainsControlCharacter returns true if str contains a byte in the
// range 0-31.
func ContainsControlCharacter(str string) bool {
	for _, r := range str {
		if r >= 0 && r <= 31 {
			return true
		}
	}
	return false
}

// Returns true if the list of strings contains item.
func StringListContains(list []string, item string) bool {
	if list != nil {
		for i := range list {
			if list[i] == item {
				return true
			}
		}
	}
	return false
}

// ReplaceTokens returns template with each key in tokens replaced by
// its value.
func ReplaceTokens(template string, tokens map[string]string) string {
	replacements := make([]string, 0, len(tokens)*2)
	for token, value := range tokens {
		replacements = append(replacements, token, value)
	}
	return strings.NewReplacer(replacements...).Replace(template)
}

// ObjectURL returns the URL of an object in the Fedora repository.
func ObjectURL(fedoraURL, pid string) string {
	return fmt.Sprintf("%s/objects/%s", strings.TrimRight(fedoraURL, "/"), pid)
}
