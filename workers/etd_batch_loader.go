package workers

import (
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/context"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/network"
	"github.com/etdloader/etdloader/util/fileutil"
	"golang.org/x/sync/errgroup"
	"io/ioutil"
	"os"
	"sync"
	"time"
)

// ETDBatchLoader processes every archive in the incoming directory,
// moves each one to the directory that matches its outcome, and
// reports on the whole batch.
type ETDBatchLoader struct {
	Context   *context.Context
	Summary   *models.BatchSummary
	configErr error
	mutex     sync.Mutex
}

func NewETDBatchLoader(_context *context.Context) *ETDBatchLoader {
	return &ETDBatchLoader{
		Context: _context,
		Summary: models.NewBatchSummary(_context.Config.Mode),
	}
}

/*
Run loads the archives in the incoming directory. If archiveName is
not empty, it loads only that archive.

A record that fails does not stop the batch. A configuration error
does: records already running finish, no new ones start, and the
archives that were not started stay in the incoming directory. In
that case, Run returns the configuration error along with the summary.
*/
func (loader *ETDBatchLoader) Run(archiveName string) (*models.BatchSummary, error) {
	config := loader.Context.Config
	log := loader.Context.MessageLog
	archives, err := loader.listArchives(archiveName)
	if err != nil {
		return nil, err
	}
	log.Info("Found %d archives in %s", len(archives), config.IncomingDirectory)

	workers := config.Workers
	if workers < 1 {
		workers = 1
	}
	group := new(errgroup.Group)
	group.SetLimit(workers)
	for _, name := range archives {
		if loader.ConfigError() != nil {
			log.Warning("Not starting %s because of configuration error", name)
			loader.Summary.AddUnprocessed(name)
			continue
		}
		if config.SkipAlreadyProcessed && loader.Context.RecordDB != nil &&
			loader.Context.RecordDB.AlreadyIngested(name) {
			log.Notice("Skipping %s: history DB says it was already ingested", name)
			loader.Summary.AddUnprocessed(name)
			continue
		}
		archive := name
		group.Go(func() error {
			// Go blocks until a worker is free, and a record that
			// was running meanwhile may have hit a config error.
			if loader.ConfigError() != nil {
				loader.Summary.AddUnprocessed(archive)
				return nil
			}
			loader.processArchive(archive)
			return nil
		})
	}
	group.Wait()

	loader.Summary.Finish()
	if loader.Context.RecordDB != nil {
		if err := loader.Context.RecordDB.SetLastRun(time.Now().UTC()); err != nil {
			log.Warning("Cannot save last run time: %v", err)
		}
	}
	loader.writeReport()
	loader.Context.LogStats()
	return loader.Summary, loader.ConfigError()
}

// ConfigError returns the first configuration error any record hit.
func (loader *ETDBatchLoader) ConfigError() error {
	loader.mutex.Lock()
	defer loader.mutex.Unlock()
	return loader.configErr
}

func (loader *ETDBatchLoader) setConfigError(err error) {
	loader.mutex.Lock()
	defer loader.mutex.Unlock()
	if loader.configErr == nil {
		loader.configErr = err
	}
}

func (loader *ETDBatchLoader) listArchives(archiveName string) ([]string, error) {
	config := loader.Context.Config
	transport := loader.Context.Transport
	user, password := loader.Context.TransportCredentials()
	if err := transport.Login(user, password); err != nil {
		return nil, err
	}
	if err := transport.ChangeDir(config.IncomingDirectory); err != nil {
		return nil, err
	}
	archives, err := transport.ListFiles(config.ArchivePattern)
	if err != nil {
		return nil, err
	}
	if archiveName == "" {
		return archives, nil
	}
	for _, name := range archives {
		if name == archiveName {
			return []string{name}, nil
		}
	}
	return nil, fmt.Errorf("Archive %s not found in %s", archiveName, config.IncomingDirectory)
}

func (loader *ETDBatchLoader) processArchive(archiveName string) {
	log := loader.Context.MessageLog
	processor, err := NewETDProcessor(loader.Context, archiveName)
	if err != nil {
		loader.setConfigError(models.NewConfigError(constants.StepExtract, "%v", err))
		loader.Summary.AddUnprocessed(archiveName)
		return
	}
	record := processor.Record
	err = processor.Run()
	if models.IsConfigError(err) {
		// Leave the archive where it is. It's not the archive's fault.
		log.Error("Configuration error on %s. No more records will be started.", record.Name)
		loader.setConfigError(err)
	} else {
		loader.relocate(record)
		loader.preserve(record)
	}
	loader.notify(record)
	loader.finish(record)
}

// relocate moves the archive to the directory for its outcome.
func (loader *ETDBatchLoader) relocate(record *models.ETDRecord) {
	config := loader.Context.Config
	var target string
	switch record.Status {
	case constants.StatusIngested:
		target = config.ProcessedDirectory
	case constants.StatusSkipped:
		target = config.SkippedDirectory
	case constants.StatusFailed:
		target = config.FailedDirectory
	}
	if target == "" {
		return
	}
	err := loader.Context.Transport.Move(record.ArchiveName, config.IncomingDirectory, target)
	if err != nil {
		record.AddNonCriticalError(constants.StepPostProcess, "Cannot move %s to %s: %v",
			record.ArchiveName, target, err)
		return
	}
	record.PostProcessLocation = target
}

// preserve sends a copy of an ingested archive to the preservation
// bucket, if there is one.
func (loader *ETDBatchLoader) preserve(record *models.ETDRecord) {
	config := loader.Context.Config
	if config.PreservationBucket == "" || !record.Succeeded() {
		return
	}
	checksum, err := fileutil.CalculateChecksum(record.ArchivePath, constants.AlgSha256)
	if err != nil {
		record.AddNonCriticalError(constants.StepPostProcess, "Cannot checksum %s: %v", record.ArchiveName, err)
		return
	}
	reader, err := os.Open(record.ArchivePath)
	if err != nil {
		record.AddNonCriticalError(constants.StepPostProcess, "Cannot read %s: %v", record.ArchiveName, err)
		return
	}
	defer reader.Close()
	upload := network.NewS3Upload(config.PreservationRegion, config.PreservationBucket,
		record.ArchiveName, "application/zip")
	upload.Endpoint = config.PreservationEndpoint
	upload.AddMetadata("pid", record.PID)
	upload.AddMetadata("record", record.Name)
	upload.AddMetadata("sha256", checksum)
	upload.Send(reader)
	if upload.ErrorMessage != "" {
		record.AddNonCriticalError(constants.StepPostProcess, "Cannot copy %s to bucket %s: %s",
			record.ArchiveName, config.PreservationBucket, upload.ErrorMessage)
		return
	}
	loader.Context.MessageLog.Info("Copied %s to preservation bucket %s", record.ArchiveName, config.PreservationBucket)
}

func (loader *ETDBatchLoader) notify(record *models.ETDRecord) {
	if loader.Context.Notifier == nil {
		return
	}
	if err := loader.Context.Notifier.Notify(record); err != nil {
		record.AddNonCriticalError(constants.StepPostProcess, "%v", err)
	}
}

// finish counts the record, logs it, saves it to the history DB
// and adds it to the batch summary.
func (loader *ETDBatchLoader) finish(record *models.ETDRecord) {
	_context := loader.Context
	switch {
	case record.Succeeded():
		_context.IncrementSucceeded()
	case record.Skipped():
		_context.IncrementSkipped()
	default:
		_context.IncrementFailed()
	}
	for _, message := range record.NonCriticalErrors {
		_context.MessageLog.Warning("%s: %s", record.Name, message)
	}
	if data, err := record.ToJson(); err != nil {
		_context.MessageLog.Error("Cannot serialize %s: %v", record.Name, err)
	} else if _context.JsonLog != nil {
		_context.JsonLog.Println(data)
	}
	if _context.RecordDB != nil {
		if err := _context.RecordDB.Save(record); err != nil {
			_context.MessageLog.Error("Cannot save %s to history DB: %v", record.Name, err)
		}
	}
	loader.Summary.AddRecord(record)
}

func (loader *ETDBatchLoader) writeReport() {
	reportFile := loader.Context.Config.ReportFile
	if reportFile == "" {
		return
	}
	err := ioutil.WriteFile(reportFile, []byte(loader.Summary.Report()), 0644)
	if err != nil {
		loader.Context.MessageLog.Error("Cannot write report to %s: %v", reportFile, err)
	}
}
