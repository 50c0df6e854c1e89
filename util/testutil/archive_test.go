package testutil_test

import (
	"bytes"
	"fmt"
	"github.com/etdloader/etdloader/testdata"
	"github.com/etdloader/etdloader/util/testutil"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"testing"
)

func TestMakeETDArchive(t *testing.T) {
	dir, err := ioutil.TempDir("", "testutil_test")
	require.Nil(t, err)
	defer os.RemoveAll(dir)

	submission := testdata.MakeSubmission()
	extra := testutil.ZipEntry{Name: "notes/", Body: nil}
	pathToZip, err := testutil.MakeETDArchive(dir, "etdadmin_upload_1.zip", submission, extra)
	require.Nil(t, err)

	reader, err := zip.OpenReader(pathToZip)
	require.Nil(t, err)
	defer reader.Close()
	require.Equal(t, 3, len(reader.File))
	pdfName, xmlName := testutil.ETDEntryNames(submission.Surname, 10001)
	assert.Equal(t, pdfName, reader.File[0].Name)
	assert.Equal(t, xmlName, reader.File[1].Name)
	assert.True(t, reader.File[2].FileInfo().IsDir())
	assert.True(t, strings.Contains(pdfName, "0016"))
}

func TestMinimalPDF(t *testing.T) {
	assert.True(t, bytes.HasPrefix(testutil.MinimalPDF, []byte("%PDF-1.4")))
	assert.True(t, bytes.HasSuffix(testutil.MinimalPDF, []byte("%EOF\n")))

	// Every xref offset must point at an object header.
	start := bytes.Index(testutil.MinimalPDF, []byte("xref\n"))
	require.True(t, start > 0)
	end := bytes.Index(testutil.MinimalPDF, []byte("trailer\n"))
	require.True(t, end > start)
	objectNumber := 0
	for _, line := range strings.Split(string(testutil.MinimalPDF[start:end]), "\n") {
		if !strings.HasSuffix(line, " n ") {
			continue
		}
		objectNumber++
		offset, err := strconv.Atoi(strings.Fields(line)[0])
		require.Nil(t, err)
		require.True(t, offset < len(testutil.MinimalPDF))
		header := fmt.Sprintf("%d 0 obj\n", objectNumber)
		assert.True(t, bytes.HasPrefix(testutil.MinimalPDF[offset:], []byte(header)),
			"xref entry %d does not point at %q", objectNumber, header)
	}
	assert.Equal(t, 5, objectNumber)
}
