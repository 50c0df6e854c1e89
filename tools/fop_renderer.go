package tools

import (
	"fmt"
	"os"
)

// FOPRenderer renders splash pages with Apache FOP.
type FOPRenderer struct {
	FOPPath    string
	ConfigPath string
	runner     *Runner
}

func NewFOPRenderer(fopPath, configPath string, runner *Runner) *FOPRenderer {
	return &FOPRenderer{
		FOPPath:    fopPath,
		ConfigPath: configPath,
		runner:     runner,
	}
}

// Args returns the FOP command line arguments.
func (renderer *FOPRenderer) Args(stylesheetPath, sourcePath, outputPath string) []string {
	args := make([]string, 0)
	if renderer.ConfigPath != "" {
		args = append(args, "-c", renderer.ConfigPath)
	}
	return append(args, "-xml", sourcePath, "-xsl", stylesheetPath, "-pdf", outputPath)
}

func (renderer *FOPRenderer) Render(stylesheetPath, sourcePath, outputPath string) error {
	_, err := renderer.runner.Run(renderer.FOPPath, renderer.Args(stylesheetPath, sourcePath, outputPath)...)
	if err != nil {
		return err
	}
	// FOP has been known to exit zero without writing anything.
	if stat, err := os.Stat(outputPath); err != nil || stat.Size() == 0 {
		return fmt.Errorf("%s did not produce %s", renderer.FOPPath, outputPath)
	}
	return nil
}
