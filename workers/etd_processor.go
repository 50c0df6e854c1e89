package workers

import (
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/context"
	"github.com/etdloader/etdloader/datastreams"
	"github.com/etdloader/etdloader/metadata"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/util"
	"github.com/etdloader/etdloader/util/fileutil"
	"github.com/etdloader/etdloader/zipfile"
)

/*
ETDProcessor takes one archive from the incoming directory to a
deposited Fedora object. The record moves through these states:

	scanned -> downloaded -> success -> processed -> ingested

Extraction may end in skipped instead of success, when the archive
contains supplemental files that someone has to load by hand. Any
critical error puts the record into the failed state. Failed,
skipped and ingested are terminal.

Each ETDProcessor owns its record and its working directory, so
several of them can run at once.
*/
type ETDProcessor struct {
	Context *context.Context
	Record  *models.ETDRecord
	Object  *models.FedoraObject
	reader  *zipfile.Reader
	deriver *metadata.Deriver
	builder *datastreams.Builder
	err     error
}

// NewETDProcessor returns a processor for the archive with the
// specified name, in the scanned state.
func NewETDProcessor(_context *context.Context, archiveName string) (*ETDProcessor, error) {
	config := _context.Config
	reader, err := zipfile.NewReader(config.FileMarker, _context.MessageLog)
	if err != nil {
		return nil, err
	}
	workingDir := config.RecordWorkingDirectory(util.RecordNameFromArchive(archiveName))
	return &ETDProcessor{
		Context: _context,
		Record:  models.NewETDRecord(archiveName, workingDir),
		reader:  reader,
		deriver: metadata.NewDeriver(config, _context.Transformer, _context.Repository, _context.MessageLog),
		builder: datastreams.NewBuilder(config, _context.Toolkit, _context.Repository, _context.MessageLog),
	}, nil
}

// Err returns the critical error that stopped processing, if any.
func (processor *ETDProcessor) Err() error {
	return processor.err
}

// fail records a critical error and returns false, so steps can
// return processor.fail(...).
func (processor *ETDProcessor) fail(step, format string, a ...interface{}) bool {
	processor.err = processor.Record.AddCriticalError(step, format, a...)
	processor.Context.MessageLog.Error("%s: %v", processor.Record.Name, processor.err)
	return false
}

// Download copies the archive from the transport's current directory
// into a fresh working directory.
func (processor *ETDProcessor) Download() bool {
	record := processor.Record
	if record.Status != constants.StatusScanned {
		return false
	}
	if err := fileutil.RecreateDirectory(record.WorkingDirectory); err != nil {
		return processor.fail(constants.StepDownload, "Cannot create working directory: %v", err)
	}
	processor.Context.MessageLog.Info("Downloading %s to %s", record.ArchiveName, record.ArchivePath)
	if err := processor.Context.Transport.Fetch(record.ArchivePath, record.ArchiveName); err != nil {
		return processor.fail(constants.StepDownload, "%v", err)
	}
	record.Status = constants.StatusDownloaded
	return true
}

// Extract unpacks the archive and classifies its contents. It returns
// true when the record was skipped, but the record is then terminal.
func (processor *ETDProcessor) Extract() bool {
	record := processor.Record
	if record.Status != constants.StatusDownloaded {
		return false
	}
	if !processor.reader.Unzip(record) {
		processor.err = lastCriticalError(record)
		return false
	}
	if record.Skipped() {
		processor.Context.MessageLog.Notice("%s has %d supplemental files and will be skipped",
			record.Name, len(record.SupplementalFiles))
	}
	return true
}

// DeriveMetadata produces the MODS record, label, PID and access
// settings. It does nothing for skipped records.
func (processor *ETDProcessor) DeriveMetadata() bool {
	record := processor.Record
	if record.Status != constants.StatusSuccess {
		return false
	}
	ok, err := processor.deriver.Derive(record)
	if err != nil {
		processor.err = err
		processor.Context.MessageLog.Error("%s: %v", record.Name, err)
		return false
	}
	if ok {
		processor.Context.MessageLog.Info("%s will be %s (%s)", record.Name, record.PID, record.Label)
	}
	return ok
}

// BuildDatastreams creates the object and every datastream on it.
// It does nothing for skipped records.
func (processor *ETDProcessor) BuildDatastreams() bool {
	record := processor.Record
	if record.Status != constants.StatusProcessed {
		return false
	}
	obj, err := processor.builder.Build(record)
	if err != nil {
		processor.err = err
		processor.Context.MessageLog.Error("%s: %v", record.Name, err)
		return false
	}
	processor.Object = obj
	return obj != nil
}

// Ingest deposits the object in the repository. In dry run mode,
// the repository only pretends to, and the record still ends up
// ingested.
func (processor *ETDProcessor) Ingest() bool {
	record := processor.Record
	if record.Status != constants.StatusProcessed || processor.Object == nil {
		return false
	}
	if _, err := processor.Context.Repository.IngestObject(processor.Object); err != nil {
		return processor.fail(constants.StepIngest, "Cannot ingest %s: %v", record.PID, err)
	}
	record.IngestSucceeded = true
	record.RecordURL = util.ObjectURL(processor.Context.Config.FedoraURL, record.PID)
	record.Status = constants.StatusIngested
	processor.Context.MessageLog.Info("Ingested %s as %s", record.Name, record.RecordURL)
	return true
}

// Run drives the record through every step, stopping at the first
// one that fails or leaves the record in a terminal state. It returns
// the critical error that stopped the record, if there was one.
func (processor *ETDProcessor) Run() error {
	record := processor.Record
	record.Start()
	defer record.Finish()
	steps := []func() bool{
		processor.Download,
		processor.Extract,
		processor.DeriveMetadata,
		processor.BuildDatastreams,
		processor.Ingest,
	}
	for _, step := range steps {
		if !step() || record.IsTerminal() {
			break
		}
	}
	if record.Failed() && processor.err == nil {
		processor.err = lastCriticalError(record)
	}
	processor.Context.MessageLog.Info("Finished %s in %s", record.Summary(), record.RunTime())
	return processor.err
}

func lastCriticalError(record *models.ETDRecord) error {
	if len(record.CriticalErrors) == 0 {
		return nil
	}
	return fmt.Errorf("%s", record.CriticalErrors[len(record.CriticalErrors)-1])
}
