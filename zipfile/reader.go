// Package zipfile unpacks ETD submission archives and sorts their
// contents into the primary document, the primary metadata file and
// supplemental files.
package zipfile

import (
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/util"
	"github.com/etdloader/etdloader/util/fileutil"
	"github.com/klauspost/compress/zip"
	"github.com/op/go-logging"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

type Reader struct {
	marker *regexp.Regexp
	logger *logging.Logger
}

// NewReader returns a Reader that treats entries whose relative path
// matches fileMarker as belonging to the institution. The marker is a
// regular expression; a plain string like "0016" matches as a
// substring.
func NewReader(fileMarker string, logger *logging.Logger) (*Reader, error) {
	if fileMarker == "" {
		fileMarker = constants.DefaultFileMarker
	}
	marker, err := regexp.Compile(fileMarker)
	if err != nil {
		return nil, fmt.Errorf("Invalid file marker '%s': %v", fileMarker, err)
	}
	return &Reader{
		marker: marker,
		logger: logger,
	}, nil
}

// Unzip expands record.ArchivePath into record.WorkingDirectory and
// classifies what it finds. It returns false if it recorded a critical
// error. A record with supplemental files comes back with status
// skipped, and true, since extraction itself worked.
func (reader *Reader) Unzip(record *models.ETDRecord) bool {
	if len(record.ArchiveName) < constants.MinArchiveNameLength {
		record.AddCriticalError(constants.StepExtract,
			"Refusing to open archive '%s': name is shorter than %d characters",
			record.ArchiveName, constants.MinArchiveNameLength)
		return false
	}
	if !reader.archiveIsReadable(record) {
		return false
	}
	zipReader, err := zip.OpenReader(record.ArchivePath)
	if err != nil {
		record.AddCriticalError(constants.StepExtract, "Cannot open archive %s: %v", record.ArchiveName, err)
		return false
	}
	defer zipReader.Close()
	for _, file := range zipReader.File {
		if !reader.saveEntry(record, file) {
			return false
		}
	}
	entries, err := fileutil.RecursiveEntryList(record.WorkingDirectory, record.ArchiveName)
	if err != nil {
		record.AddCriticalError(constants.StepExtract, "Cannot list contents of %s: %v",
			record.WorkingDirectory, err)
		return false
	}
	if len(entries) == 0 {
		record.AddCriticalError(constants.StepExtract, "Archive %s is empty", record.ArchiveName)
		return false
	}
	reader.classify(record, entries)
	if record.HasSupplements {
		record.Status = constants.StatusSkipped
		reader.logger.Info("%s has %d supplemental file(s) and will be skipped",
			record.Name, len(record.SupplementalFiles))
		return true
	}
	if record.PDFPath == "" {
		record.AddCriticalError(constants.StepExtract, "PDF not found in %s", record.ArchiveName)
		return false
	}
	if record.MetadataPath == "" {
		record.AddCriticalError(constants.StepExtract, "metadata XML not found in %s", record.ArchiveName)
		return false
	}
	record.Status = constants.StatusSuccess
	return true
}

// The zip reader would fail on these anyway, but we want a clear
// message in the report.
func (reader *Reader) archiveIsReadable(record *models.ETDRecord) bool {
	stat, err := os.Stat(record.ArchivePath)
	if err != nil {
		record.AddCriticalError(constants.StepExtract, "Cannot open archive %s: %v", record.ArchiveName, err)
		return false
	}
	if stat.IsDir() {
		record.AddCriticalError(constants.StepExtract, "Cannot open archive %s: it is a directory",
			record.ArchiveName)
		return false
	}
	if stat.Size() < constants.MinArchiveSize {
		record.AddCriticalError(constants.StepExtract,
			"Cannot open archive %s: file is only %d bytes", record.ArchiveName, stat.Size())
		return false
	}
	return true
}

// classify walks entries in sorted order. First PDF wins, first XML
// wins, and everything else carrying the marker is supplemental.
func (reader *Reader) classify(record *models.ETDRecord, entries []string) {
	for _, entry := range entries {
		absPath := filepath.Join(record.WorkingDirectory, entry)
		if !reader.marker.MatchString(entry) {
			record.AddNonCriticalError(constants.StepExtract,
				"%s does not contain marker %s", entry, reader.marker.String())
			continue
		}
		ext := util.Extension(entry)
		if ext == "pdf" && record.PDFPath == "" && !isDir(absPath) {
			record.PDFPath = absPath
		} else if ext == "xml" && record.MetadataPath == "" && !isDir(absPath) {
			record.MetadataPath = absPath
		} else if isDir(absPath) {
			reader.logger.Debug("%s: skipping directory %s", record.Name, entry)
		} else {
			record.SupplementalFiles = append(record.SupplementalFiles, entry)
			record.HasSupplements = true
		}
	}
}

func (reader *Reader) saveEntry(record *models.ETDRecord, file *zip.File) bool {
	outputPath, err := safeJoin(record.WorkingDirectory, file.Name)
	if err != nil {
		record.AddCriticalError(constants.StepExtract, "%v", err)
		return false
	}
	if file.FileInfo().IsDir() {
		if err = os.MkdirAll(outputPath, 0755); err != nil {
			record.AddCriticalError(constants.StepExtract, "Cannot create directory %s: %v", outputPath, err)
			return false
		}
		return true
	}
	if err = os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		record.AddCriticalError(constants.StepExtract, "Could not create destination file '%s' "+
			"while unpacking archive: %v", outputPath, err)
		return false
	}
	if err = saveFile(file, outputPath); err != nil {
		record.AddCriticalError(constants.StepExtract, "Error copying %s from archive to '%s': %v",
			file.Name, outputPath, err)
		return false
	}
	return true
}

// safeJoin joins name to dir, refusing names that would land
// outside dir.
func safeJoin(dir, name string) (string, error) {
	cleanDir := filepath.Clean(dir)
	outputPath := filepath.Join(cleanDir, name)
	if outputPath != cleanDir && !strings.HasPrefix(outputPath, cleanDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("Archive entry '%s' would be written outside the working directory", name)
	}
	return outputPath, nil
}

func saveFile(file *zip.File, destination string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	outputWriter, err := os.OpenFile(destination, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err = io.Copy(outputWriter, src); err != nil {
		outputWriter.Close()
		return err
	}
	return outputWriter.Close()
}

func isDir(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.IsDir()
}
