package testutil

import (
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/testdata"
	"github.com/klauspost/compress/zip"
	"os"
	"path/filepath"
	"strings"
)

// ZipEntry is one file or directory to put in a test archive.
// Names ending in a slash are directories.
type ZipEntry struct {
	Name string
	Body []byte
}

// MinimalPDF is a one page PDF with correct xref offsets.
var MinimalPDF = buildMinimalPDF()

// MinimalJPEG is enough of a JFIF header for libmagic to call it
// image/jpeg.
var MinimalJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00,
	0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9}

func buildMinimalPDF() []byte {
	content := "BT /F1 24 Tf 72 720 Td (Hello ETD) Tj ET"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R " +
			"/Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	var sb strings.Builder
	sb.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = sb.Len()
		fmt.Fprintf(&sb, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := sb.Len()
	fmt.Fprintf(&sb, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, offset := range offsets {
		fmt.Fprintf(&sb, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&sb, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%EOF\n", len(objects)+1, xref)
	return []byte(sb.String())
}

// MakeZip writes entries to a new zip archive at pathToZip.
func MakeZip(pathToZip string, entries []ZipEntry) error {
	file, err := os.Create(pathToZip)
	if err != nil {
		return err
	}
	writer := zip.NewWriter(file)
	for _, entry := range entries {
		w, err := writer.Create(entry.Name)
		if err != nil {
			file.Close()
			return err
		}
		if strings.HasSuffix(entry.Name, "/") {
			continue
		}
		if _, err = w.Write(entry.Body); err != nil {
			file.Close()
			return err
		}
	}
	if err = writer.Close(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ETDEntryNames returns the names the vendor gives the PDF and the
// metadata file of a submission by surname.
func ETDEntryNames(surname string, id int) (pdfName, xmlName string) {
	base := fmt.Sprintf("%s_%sD_%d", surname, constants.DefaultFileMarker, id)
	return base + ".pdf", base + "_DATA.xml"
}

// ETDEntries returns the PDF and metadata entries for submission.
func ETDEntries(submission *testdata.Submission) []ZipEntry {
	pdfName, xmlName := ETDEntryNames(submission.Surname, 10001)
	return []ZipEntry{
		{Name: pdfName, Body: MinimalPDF},
		{Name: xmlName, Body: submission.XML()},
	}
}

// MakeETDArchive writes a well-formed ETD archive named archiveName
// into dir, with submission's PDF and metadata plus any extra entries,
// and returns its path.
func MakeETDArchive(dir, archiveName string, submission *testdata.Submission, extra ...ZipEntry) (string, error) {
	pathToZip := filepath.Join(dir, archiveName)
	entries := append(ETDEntries(submission), extra...)
	return pathToZip, MakeZip(pathToZip, entries)
}
