package models

import (
	"encoding/json"
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/util"
	"path/filepath"
	"time"
)

// ETDRecord describes one ETD submission package as it moves
// through the loader. One ETDRecord is created per archive, and it
// is never shared between records processed at the same time.
type ETDRecord struct {
	// Name is the archive's file name without the extension.
	Name string

	// ArchiveName is the archive's file name, e.g.
	// "etdadmin_upload_362114.zip".
	ArchiveName string

	// ArchivePath is the absolute path to the downloaded archive
	// inside WorkingDirectory.
	ArchivePath string

	// WorkingDirectory is the scratch directory for this record.
	// It is deleted and recreated at the start of each run.
	WorkingDirectory string

	// PDFPath is the absolute path to the primary document.
	// After metadata derivation, it points to the renamed file.
	PDFPath string

	// MetadataPath is the absolute path to the vendor's original
	// submission metadata.
	MetadataPath string

	// SupplementalFiles are paths, relative to WorkingDirectory, of
	// everything in the archive that is neither the primary document
	// nor the primary metadata.
	SupplementalFiles []string
	HasSupplements    bool

	OpenAccessAvailable bool
	// OpenAccessValue is the raw indicator from the metadata,
	// or "0" if open access is not available.
	OpenAccessValue string

	HasEmbargo bool
	// EmbargoDate is a timestamp like "2025-06-01T00:00:00Z",
	// constants.EmbargoIndefinite, or empty.
	EmbargoDate string

	PID   string
	Label string

	AuthorName       string
	NormalizedAuthor string

	// File names (not paths) of the renamed PDF, the MODS record
	// and the full text, all within WorkingDirectory.
	PDFFileName      string
	MetadataFileName string
	FullTextFileName string

	// CollectionPID is the collection the object is added to and
	// PolicyParentPID is the object whose POLICY it inherits.
	CollectionPID   string
	PolicyParentPID string

	Status              string
	NonCriticalErrors   []string
	CriticalErrors      []string
	DatastreamsCreated  []string
	IngestSucceeded     bool
	RecordURL           string
	PostProcessLocation string

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewETDRecord returns a record in the scanned state for the archive
// with the specified name, using workingDirectory as its scratch space.
func NewETDRecord(archiveName, workingDirectory string) *ETDRecord {
	return &ETDRecord{
		Name:               util.RecordNameFromArchive(archiveName),
		ArchiveName:        archiveName,
		ArchivePath:        filepath.Join(workingDirectory, archiveName),
		WorkingDirectory:   workingDirectory,
		SupplementalFiles:  make([]string, 0),
		Status:             constants.StatusScanned,
		NonCriticalErrors:  make([]string, 0),
		CriticalErrors:     make([]string, 0),
		DatastreamsCreated: make([]string, 0),
	}
}

// AddCriticalError records a critical error for the specified step
// and puts the record into the failed state. Returns the error so
// callers can pass it up the stack.
func (record *ETDRecord) AddCriticalError(step, format string, a ...interface{}) *ProcessingError {
	err := NewCriticalError(step, format, a...)
	record.AddError(err)
	return err
}

// AddNonCriticalError records an error that does not change the
// outcome of processing.
func (record *ETDRecord) AddNonCriticalError(step, format string, a ...interface{}) {
	record.AddError(NewNonCriticalError(step, format, a...))
}

// AddError files err under the critical or non-critical list,
// depending on its kind. Anything that is not a ProcessingError
// is treated as critical.
func (record *ETDRecord) AddError(err error) {
	if err == nil {
		return
	}
	if IsCriticalError(err) {
		record.CriticalErrors = append(record.CriticalErrors, err.Error())
		record.Status = constants.StatusFailed
	} else {
		record.NonCriticalErrors = append(record.NonCriticalErrors, err.Error())
	}
}

func (record *ETDRecord) HasCriticalErrors() bool {
	return len(record.CriticalErrors) > 0
}

func (record *ETDRecord) HasNonCriticalErrors() bool {
	return len(record.NonCriticalErrors) > 0
}

// AddDatastream records that the datastream with the specified id
// was built.
func (record *ETDRecord) AddDatastream(dsId string) {
	record.DatastreamsCreated = append(record.DatastreamsCreated, dsId)
}

// IsTerminal returns true if no further pipeline steps should run.
func (record *ETDRecord) IsTerminal() bool {
	return record.Status == constants.StatusFailed ||
		record.Status == constants.StatusSkipped ||
		record.Status == constants.StatusIngested
}

func (record *ETDRecord) Failed() bool {
	return record.Status == constants.StatusFailed
}

func (record *ETDRecord) Skipped() bool {
	return record.Status == constants.StatusSkipped
}

func (record *ETDRecord) Succeeded() bool {
	return record.Status == constants.StatusIngested && record.IngestSucceeded
}

func (record *ETDRecord) Start() {
	record.StartedAt = time.Now().UTC()
}

func (record *ETDRecord) Finish() {
	record.FinishedAt = time.Now().UTC()
}

func (record *ETDRecord) RunTime() time.Duration {
	if record.StartedAt.IsZero() {
		return time.Duration(0)
	}
	endTime := record.FinishedAt
	if endTime.IsZero() {
		endTime = time.Now().UTC()
	}
	return endTime.Sub(record.StartedAt)
}

// FullTextPath returns the path of the extracted full text file.
func (record *ETDRecord) FullTextPath() string {
	if record.FullTextFileName == "" {
		return ""
	}
	return filepath.Join(record.WorkingDirectory, record.FullTextFileName)
}

// ArchivalMetadataPath returns the path of the MODS record.
func (record *ETDRecord) ArchivalMetadataPath() string {
	if record.MetadataFileName == "" {
		return ""
	}
	return filepath.Join(record.WorkingDirectory, record.MetadataFileName)
}

// Summary returns a one-line description of the record for the log.
func (record *ETDRecord) Summary() string {
	summary := fmt.Sprintf("%s status=%s pid=%s", record.Name, record.Status, record.PID)
	if record.HasEmbargo {
		summary += fmt.Sprintf(" embargo=%s", record.EmbargoDate)
	}
	return summary
}

func (record *ETDRecord) ToJson() (string, error) {
	bytes, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
