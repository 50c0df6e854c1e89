package tools

import (
	"fmt"
	"github.com/etdloader/etdloader/util/fileutil"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PdfcpuMerger merges PDFs in-process with pdfcpu.
type PdfcpuMerger struct{}

func NewPdfcpuMerger() *PdfcpuMerger {
	return &PdfcpuMerger{}
}

func (merger *PdfcpuMerger) Merge(outputPath string, inputPaths ...string) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("Nothing to merge into %s", outputPath)
	}
	if err := api.MergeCreateFile(inputPaths, outputPath, false, nil); err != nil {
		return fmt.Errorf("Cannot merge %v into %s: %v", inputPaths, outputPath, err)
	}
	return nil
}

// CopyMerger does not merge anything. It copies the last input, which
// is the primary document, to outputPath and ignores the rest. This is
// how the loader behaved before splash pages were actually attached.
type CopyMerger struct{}

func NewCopyMerger() *CopyMerger {
	return &CopyMerger{}
}

func (merger *CopyMerger) Merge(outputPath string, inputPaths ...string) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("Nothing to copy to %s", outputPath)
	}
	_, err := fileutil.CopyFile(inputPaths[len(inputPaths)-1], outputPath)
	return err
}
