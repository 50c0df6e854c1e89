// Package transform applies XSLT stylesheets to XML documents.
package transform

import (
	"fmt"
	"github.com/antchfx/xmlquery"
	"github.com/etdloader/etdloader/tools"
	"github.com/etdloader/etdloader/util/fileutil"
	"github.com/satori/go.uuid"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stylesheet is an XSLT stylesheet that has been checked to exist
// and to be well-formed XML.
type Stylesheet struct {
	Path string
}

type Transformer interface {
	LoadStylesheet(path string) (*Stylesheet, error)
	Transform(doc []byte, ss *Stylesheet, params map[string]string) ([]byte, error)
	TransformToText(doc []byte, ss *Stylesheet) (string, error)
}

// XsltprocTransformer runs stylesheets through libxslt's xsltproc.
type XsltprocTransformer struct {
	XsltprocPath string
	TempDir      string
	runner       *tools.Runner
}

func NewXsltprocTransformer(xsltprocPath, tempDir string, runner *tools.Runner) *XsltprocTransformer {
	if xsltprocPath == "" {
		xsltprocPath = "xsltproc"
	}
	return &XsltprocTransformer{
		XsltprocPath: xsltprocPath,
		TempDir:      tempDir,
		runner:       runner,
	}
}

func (transformer *XsltprocTransformer) LoadStylesheet(path string) (*Stylesheet, error) {
	if path == "" {
		return nil, fmt.Errorf("Stylesheet path is empty")
	}
	if !fileutil.FileExists(path) {
		return nil, fmt.Errorf("Stylesheet %s does not exist", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open stylesheet %s: %v", path, err)
	}
	defer file.Close()
	doc, err := xmlquery.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("Stylesheet %s is not valid XML: %v", path, err)
	}
	if xmlquery.FindOne(doc, "/*[local-name()='stylesheet' or local-name()='transform']") == nil {
		return nil, fmt.Errorf("%s is not an XSLT stylesheet", path)
	}
	return &Stylesheet{Path: path}, nil
}

// Args returns the xsltproc arguments for the given stylesheet,
// parameters and input file. Parameters are passed as strings, in
// sorted order.
func Args(ss *Stylesheet, params map[string]string, inputPath string) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	args := make([]string, 0)
	for _, name := range names {
		args = append(args, "--stringparam", name, params[name])
	}
	return append(args, ss.Path, inputPath)
}

func (transformer *XsltprocTransformer) Transform(doc []byte, ss *Stylesheet, params map[string]string) ([]byte, error) {
	if ss == nil {
		return nil, fmt.Errorf("No stylesheet")
	}
	inputPath := filepath.Join(transformer.TempDir, fmt.Sprintf("transform-%s.xml", uuid.NewV4().String()))
	if err := ioutil.WriteFile(inputPath, doc, 0644); err != nil {
		return nil, fmt.Errorf("Cannot write transform input: %v", err)
	}
	defer os.Remove(inputPath)
	result, err := transformer.runner.Run(transformer.XsltprocPath, Args(ss, params, inputPath)...)
	if err != nil {
		return nil, fmt.Errorf("Transform with %s failed: %v", filepath.Base(ss.Path), err)
	}
	if len(result.Stdout) == 0 {
		return nil, fmt.Errorf("Transform with %s produced no output", filepath.Base(ss.Path))
	}
	return result.Stdout, nil
}

func (transformer *XsltprocTransformer) TransformToText(doc []byte, ss *Stylesheet) (string, error) {
	output, err := transformer.Transform(doc, ss, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
