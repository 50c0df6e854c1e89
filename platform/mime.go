//go:build !nomagic
// +build !nomagic

// This requires libmagic, which is not installed everywhere,
// so this file is not compiled when the flag -tags=nomagic is set.
package platform

import (
	"fmt"
	"github.com/rakyll/magicmime"
	"regexp"
	"sync"
)

// IsMagicBuild is true when mime types are sniffed with libmagic.
var IsMagicBuild = true

// magicMime is the MimeMagic database. We want
// just one copy of this open at a time.
var magicMime *magicmime.Magic

// libmagic sometimes returns nonsense (unprintable characters)
// when accessed by multiple goroutines at once, and records may be
// processed in parallel, so all access goes through this mutex.
var mutex = &sync.Mutex{}

var validMimeType = regexp.MustCompile(`^[\w\.\-\+]+/[\w\.\-\+]+$`)

func openMagic() error {
	if magicMime == nil {
		var err error
		magicMime, err = magicmime.New(magicmime.MAGIC_MIME_TYPE)
		if err != nil {
			return fmt.Errorf("Error opening MimeMagic database: %v", err)
		}
	}
	return nil
}

// GuessMimeType returns the mime type of the file at absPath. If
// libmagic returns an empty or garbled answer, this returns
// application/octet-stream.
func GuessMimeType(absPath string) (mimeType string, err error) {
	mutex.Lock()
	defer mutex.Unlock()
	if err = openMagic(); err != nil {
		return "", err
	}
	mimeType = "application/octet-stream"
	guessedType, _ := magicMime.TypeByFile(absPath)
	if guessedType != "" && validMimeType.MatchString(guessedType) {
		mimeType = guessedType
	}
	return mimeType, nil
}

// GuessMimeTypeByBuffer returns the mime type of buf, which is
// usually the first few hundred bytes of a file.
func GuessMimeTypeByBuffer(buf []byte) (mimeType string, err error) {
	mutex.Lock()
	defer mutex.Unlock()
	if err = openMagic(); err != nil {
		return "", err
	}
	mimeType = "application/octet-stream"
	guessedType, _ := magicMime.TypeByBuffer(buf)
	if guessedType != "" && validMimeType.MatchString(guessedType) {
		mimeType = guessedType
	}
	return mimeType, nil
}
