package testutil

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"github.com/antchfx/xmlquery"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/tools"
	"github.com/etdloader/etdloader/transform"
	"github.com/etdloader/etdloader/util/fileutil"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MockTransport serves archives out of a local directory. Each
// subdirectory of Root plays the part of a directory on the server.
type MockTransport struct {
	Root        string
	LoginError  error
	ListError   error
	FetchErrors map[string]error
	MoveError   error
	Moves       []string
	Closed      bool
	currentDir  string
	mutex       sync.Mutex
}

func NewMockTransport(root string) *MockTransport {
	return &MockTransport{
		Root:        root,
		FetchErrors: make(map[string]error),
		Moves:       make([]string, 0),
	}
}

func (transport *MockTransport) Login(user, password string) error {
	return transport.LoginError
}

func (transport *MockTransport) ChangeDir(dir string) error {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	if !fileutil.FileExists(filepath.Join(transport.Root, dir)) {
		return fmt.Errorf("No such directory: %s", dir)
	}
	transport.currentDir = dir
	return nil
}

func (transport *MockTransport) ListFiles(pattern string) ([]string, error) {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	if transport.ListError != nil {
		return nil, transport.ListError
	}
	matches, err := filepath.Glob(filepath.Join(transport.Root, transport.currentDir, pattern))
	if err != nil {
		return nil, err
	}
	files := make([]string, 0)
	for _, match := range matches {
		if stat, err := os.Stat(match); err == nil && !stat.IsDir() {
			files = append(files, filepath.Base(match))
		}
	}
	sort.Strings(files)
	return files, nil
}

func (transport *MockTransport) Fetch(localPath, remotePath string) error {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	if err := transport.FetchErrors[remotePath]; err != nil {
		return err
	}
	_, err := fileutil.CopyFile(filepath.Join(transport.Root, transport.currentDir, remotePath), localPath)
	return err
}

func (transport *MockTransport) Move(name, fromDir, toDir string) error {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	if transport.MoveError != nil {
		return transport.MoveError
	}
	if err := os.MkdirAll(filepath.Join(transport.Root, toDir), 0755); err != nil {
		return err
	}
	err := os.Rename(filepath.Join(transport.Root, fromDir, name), filepath.Join(transport.Root, toDir, name))
	if err == nil {
		transport.Moves = append(transport.Moves, fmt.Sprintf("%s %s -> %s", name, fromDir, toDir))
	}
	return err
}

func (transport *MockTransport) Close() error {
	transport.Closed = true
	return nil
}

// MockTransformer stands in for xsltproc. It understands exactly two
// transforms: DISS_submission to MODS, and MODS to title text, which
// is what the stylesheets in config/xsl do.
type MockTransformer struct {
	// LoadErrors maps stylesheet base names to the error
	// LoadStylesheet should return.
	LoadErrors     map[string]error
	TransformError error
	TextError      error
	// OmitAuthor leaves the author out of the MODS output.
	OmitAuthor bool
	Calls      []string
	mutex      sync.Mutex
}

func NewMockTransformer() *MockTransformer {
	return &MockTransformer{
		LoadErrors: make(map[string]error),
		Calls:      make([]string, 0),
	}
}

func (transformer *MockTransformer) record(call string) {
	transformer.mutex.Lock()
	defer transformer.mutex.Unlock()
	transformer.Calls = append(transformer.Calls, call)
}

func (transformer *MockTransformer) LoadStylesheet(path string) (*transform.Stylesheet, error) {
	transformer.record("LoadStylesheet " + filepath.Base(path))
	if err := transformer.LoadErrors[filepath.Base(path)]; err != nil {
		return nil, err
	}
	return &transform.Stylesheet{Path: path}, nil
}

func (transformer *MockTransformer) Transform(doc []byte, ss *transform.Stylesheet, params map[string]string) ([]byte, error) {
	transformer.record("Transform " + filepath.Base(ss.Path))
	if transformer.TransformError != nil {
		return nil, transformer.TransformError
	}
	root, err := xmlquery.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}
	submission := xmlquery.FindOne(root, "/DISS_submission")
	if submission == nil {
		return nil, fmt.Errorf("MockTransformer only transforms DISS_submission documents")
	}
	text := func(expr string) string {
		if node := xmlquery.FindOne(submission, expr); node != nil {
			return strings.TrimSpace(node.InnerText())
		}
		return ""
	}
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<mods:mods xmlns:mods="http://www.loc.gov/mods/v3" version="3.5">` + "\n")
	writeElement(&buf, "  <mods:titleInfo><mods:title>%s</mods:title></mods:titleInfo>\n",
		text("DISS_description/DISS_title"))
	if !transformer.OmitAuthor {
		author := text("DISS_authorship/DISS_author/DISS_name/DISS_surname") + ", " +
			text("DISS_authorship/DISS_author/DISS_name/DISS_fname")
		if middle := text("DISS_authorship/DISS_author/DISS_name/DISS_middle"); middle != "" {
			author += " " + middle
		}
		writeElement(&buf, "  <mods:name type=\"personal\"><mods:namePart>%s</mods:namePart>"+
			"<mods:role><mods:roleTerm type=\"text\">author</mods:roleTerm></mods:role></mods:name>\n", author)
	}
	writeElement(&buf, "  <mods:identifier type=\"hdl\">%s</mods:identifier>\n", params["handle"])
	buf.WriteString("</mods:mods>\n")
	return buf.Bytes(), nil
}

func writeElement(buf *bytes.Buffer, format, value string) {
	var escaped bytes.Buffer
	xml.EscapeText(&escaped, []byte(value))
	fmt.Fprintf(buf, format, escaped.String())
}

func (transformer *MockTransformer) TransformToText(doc []byte, ss *transform.Stylesheet) (string, error) {
	transformer.record("TransformToText " + filepath.Base(ss.Path))
	if transformer.TextError != nil {
		return "", transformer.TextError
	}
	root, err := xmlquery.Parse(bytes.NewReader(doc))
	if err != nil {
		return "", err
	}
	title := xmlquery.FindOne(root, "//*[local-name()='title']")
	if title == nil {
		return "", nil
	}
	return strings.TrimSpace(title.InnerText()), nil
}

// CallCount returns the number of calls whose description starts
// with prefix, e.g. "Transform".
func (transformer *MockTransformer) CallCount(prefix string) int {
	transformer.mutex.Lock()
	defer transformer.mutex.Unlock()
	count := 0
	for _, call := range transformer.Calls {
		if strings.HasPrefix(call, prefix+" ") {
			count++
		}
	}
	return count
}

// MockRenderer writes MinimalPDF as the splash page.
type MockRenderer struct {
	Error error
	Calls int
	mutex sync.Mutex
}

func (renderer *MockRenderer) Render(stylesheetPath, sourcePath, outputPath string) error {
	renderer.mutex.Lock()
	renderer.Calls++
	renderer.mutex.Unlock()
	if renderer.Error != nil {
		return renderer.Error
	}
	return ioutil.WriteFile(outputPath, MinimalPDF, 0644)
}

// MockMerger copies the last input to the output, like CopyMerger,
// and remembers what it was asked to merge.
type MockMerger struct {
	Error  error
	Inputs []string
	mutex  sync.Mutex
}

func (merger *MockMerger) Merge(outputPath string, inputPaths ...string) error {
	merger.mutex.Lock()
	merger.Inputs = inputPaths
	merger.mutex.Unlock()
	if merger.Error != nil {
		return merger.Error
	}
	return tools.NewCopyMerger().Merge(outputPath, inputPaths...)
}

// MockTextExtractor writes Text to the output file.
type MockTextExtractor struct {
	Text  string
	Error error
}

func (extractor *MockTextExtractor) ExtractText(pdfPath, outputPath string) error {
	if extractor.Error != nil {
		return extractor.Error
	}
	return ioutil.WriteFile(outputPath, []byte(extractor.Text), 0644)
}

// MockImageConverter writes MinimalJPEG. If FailSize is set,
// conversions at that size fail with Error.
type MockImageConverter struct {
	Error    error
	FailSize string
	Sizes    []string
	mutex    sync.Mutex
}

func (converter *MockImageConverter) Convert(pdfPath, outputPath, size string) error {
	converter.mutex.Lock()
	converter.Sizes = append(converter.Sizes, size)
	converter.mutex.Unlock()
	if converter.Error != nil && (converter.FailSize == "" || converter.FailSize == size) {
		return converter.Error
	}
	return ioutil.WriteFile(outputPath, MinimalJPEG, 0644)
}

// NewMockToolkit returns a toolkit of mocks that all succeed.
func NewMockToolkit() *tools.Toolkit {
	return &tools.Toolkit{
		Renderer:       &MockRenderer{},
		Merger:         &MockMerger{},
		TextExtractor:  &MockTextExtractor{Text: "Chapter 1\x0c\x07 On the Migration of Herons\n"},
		ImageConverter: &MockImageConverter{Sizes: make([]string, 0)},
	}
}

// MockNotifier remembers the name and status of every record it was
// told about.
type MockNotifier struct {
	Error    error
	Messages []string
	Stopped  bool
	mutex    sync.Mutex
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Messages: make([]string, 0)}
}

func (notifier *MockNotifier) Notify(record *models.ETDRecord) error {
	notifier.mutex.Lock()
	defer notifier.mutex.Unlock()
	if notifier.Error != nil {
		return notifier.Error
	}
	notifier.Messages = append(notifier.Messages, fmt.Sprintf("%s %s", record.Name, record.Status))
	return nil
}

func (notifier *MockNotifier) Stop() {
	notifier.Stopped = true
}
