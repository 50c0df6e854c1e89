//go:build nomagic
// +build nomagic

// Stub functions for GuessMimeType and GuessMimeTypeByBuffer, for
// machines without libmagic. Callers treat an empty mime type as
// "unknown" and skip their mime type checks.
package platform

var IsMagicBuild = false

func GuessMimeType(absPath string) (mimeType string, err error) {
	return "", nil
}

func GuessMimeTypeByBuffer(buf []byte) (mimeType string, err error) {
	return "", nil
}
