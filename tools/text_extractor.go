package tools

import (
	"bytes"
	"fmt"
	"github.com/ledongthuc/pdf"
	"io/ioutil"
)

// PdftotextExtractor extracts text with poppler's pdftotext.
type PdftotextExtractor struct {
	PdftotextPath string
	runner        *Runner
}

func NewPdftotextExtractor(pdftotextPath string, runner *Runner) *PdftotextExtractor {
	return &PdftotextExtractor{
		PdftotextPath: pdftotextPath,
		runner:        runner,
	}
}

func (extractor *PdftotextExtractor) ExtractText(pdfPath, outputPath string) error {
	_, err := extractor.runner.Run(extractor.PdftotextPath, "-enc", "UTF-8", pdfPath, outputPath)
	return err
}

// NativeTextExtractor extracts text without any external program.
// It handles simple layouts well enough for full text indexing.
type NativeTextExtractor struct{}

func NewNativeTextExtractor() *NativeTextExtractor {
	return &NativeTextExtractor{}
}

func (extractor *NativeTextExtractor) ExtractText(pdfPath, outputPath string) error {
	file, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return fmt.Errorf("Cannot open %s: %v", pdfPath, err)
	}
	defer file.Close()
	var buf bytes.Buffer
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return fmt.Errorf("Cannot read text from page %d of %s: %v", i, pdfPath, err)
		}
		buf.WriteString(text)
		// pdftotext separates pages with form feeds
		buf.WriteString("\f")
	}
	return ioutil.WriteFile(outputPath, buf.Bytes(), 0644)
}
