package tools

// ImageMagickConverter makes thumbnails and previews with
// ImageMagick's convert.
type ImageMagickConverter struct {
	ConvertPath string
	runner      *Runner
}

func NewImageMagickConverter(convertPath string, runner *Runner) *ImageMagickConverter {
	return &ImageMagickConverter{
		ConvertPath: convertPath,
		runner:      runner,
	}
}

// Args returns the convert command line arguments.
func (converter *ImageMagickConverter) Args(pdfPath, outputPath, size string) []string {
	return []string{
		pdfPath + "[0]",
		"-thumbnail", size,
		"-background", "white",
		"-flatten",
		"-colorspace", "RGB",
		"jpg:" + outputPath,
	}
}

func (converter *ImageMagickConverter) Convert(pdfPath, outputPath, size string) error {
	_, err := converter.runner.Run(converter.ConvertPath, converter.Args(pdfPath, outputPath, size)...)
	return err
}
