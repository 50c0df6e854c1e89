package tools

import (
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
)

// Renderer renders a PDF from an XML document and an XSL-FO
// stylesheet.
type Renderer interface {
	Render(stylesheetPath, sourcePath, outputPath string) error
}

// Merger combines PDFs, in order, into one.
type Merger interface {
	Merge(outputPath string, inputPaths ...string) error
}

// TextExtractor writes the text of a PDF to a file.
type TextExtractor interface {
	ExtractText(pdfPath, outputPath string) error
}

// ImageConverter renders the first page of a PDF as a flattened
// RGB JPEG no larger than size, which is an ImageMagick geometry
// like "200x200".
type ImageConverter interface {
	Convert(pdfPath, outputPath, size string) error
}

// Toolkit bundles the external tools the datastream builder needs.
type Toolkit struct {
	Renderer       Renderer
	Merger         Merger
	TextExtractor  TextExtractor
	ImageConverter ImageConverter
}

// NewToolkit returns the production toolkit described by config.
// SplashPageMode "copy" swaps in the CopyMerger, and an empty
// PdftotextPath swaps in the NativeTextExtractor.
func NewToolkit(config *models.Config, runner *Runner) *Toolkit {
	toolkit := &Toolkit{
		Renderer:       NewFOPRenderer(config.FOPPath, config.FOPConfig, runner),
		ImageConverter: NewImageMagickConverter(config.ConvertPath, runner),
	}
	if config.SplashPageMode == constants.SplashCopy {
		toolkit.Merger = NewCopyMerger()
	} else {
		toolkit.Merger = NewPdfcpuMerger()
	}
	if config.PdftotextPath == "" {
		toolkit.TextExtractor = NewNativeTextExtractor()
	} else {
		toolkit.TextExtractor = NewPdftotextExtractor(config.PdftotextPath, runner)
	}
	return toolkit
}
