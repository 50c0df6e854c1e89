package context

import (
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/network"
	"github.com/etdloader/etdloader/tools"
	"github.com/etdloader/etdloader/transform"
	"github.com/etdloader/etdloader/util/logger"
	"github.com/etdloader/etdloader/util/storage"
	"github.com/op/go-logging"
	stdlog "log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"
)

/*
Context sets up the items every part of the loader needs: config,
logs, the transport the archives come from, the repository they go
to, the XSLT processor and the external tools. It also keeps count
of how many records succeeded, failed and were skipped.

Components never reach into global state. They get what they need
from the Context, so tests can build a Context out of mocks.
*/
type Context struct {
	Config      *models.Config
	MessageLog  *logging.Logger
	JsonLog     *stdlog.Logger
	Transport   network.Transport
	Repository  network.Repository
	Transformer transform.Transformer
	Toolkit     *tools.Toolkit
	RecordDB    *storage.BoltDB
	// Notifier is nil unless Config.NsqdAddress is set.
	Notifier      network.Notifier
	pathToLogFile string
	pathToJsonLog string
	succeeded     int64
	failed        int64
	skipped       int64
}

/*
NewContext creates and returns a new Context for the specified
config. It opens the logs and the run history DB, and creates the
transport and repository clients. Fedora and the transport are not
contacted until the batch loader starts.
*/
func NewContext(config *models.Config) (*Context, error) {
	context := &Context{Config: config}
	context.MessageLog, context.pathToLogFile = logger.InitLogger(config)
	context.JsonLog, context.pathToJsonLog = logger.InitJsonLogger(config)

	runner := tools.NewRunner(config.ToolTimeoutDuration(), context.MessageLog)
	context.Toolkit = tools.NewToolkit(config, runner)
	context.Transformer = transform.NewXsltprocTransformer(config.XsltprocPath, config.WorkingDirectory, runner)
	context.Transport = NewTransport(config, context.MessageLog)

	repository, err := NewRepository(config, context.MessageLog)
	if err != nil {
		return nil, err
	}
	context.Repository = repository

	if err = context.openRecordDB(); err != nil {
		return nil, err
	}
	if config.NsqdAddress != "" {
		notifier, err := network.NewNSQNotifier(config.NsqdAddress, config.NsqTopic)
		if err != nil {
			return nil, err
		}
		context.Notifier = notifier
	}
	return context, nil
}

// NewTransport returns the transport named by config.TransportType.
func NewTransport(config *models.Config, log *logging.Logger) network.Transport {
	if config.TransportType == constants.TransportS3 {
		return network.NewS3Transport(config.S3Endpoint, config.S3Bucket, config.S3UseSSL, log)
	}
	timeout := time.Duration(config.FTPTimeoutSeconds) * time.Second
	return network.NewFTPTransport(config.FTPHost, timeout, log)
}

// NewRepository returns a Fedora client in production mode, and a
// repository that deposits nothing in dry run mode.
func NewRepository(config *models.Config, log *logging.Logger) (network.Repository, error) {
	if config.IsDryRun() {
		log.Info("Dry run: nothing will be sent to Fedora")
		return network.NewDryRunRepository(log), nil
	}
	if err := config.EnsureFedoraConfig(); err != nil {
		return nil, err
	}
	user, password := config.FedoraCredentials()
	timeout := time.Duration(config.FedoraTimeoutSeconds) * time.Second
	return network.NewFedoraClient(config.FedoraURL, user, password, timeout, config.FedoraRetries, log), nil
}

func (context *Context) openRecordDB() error {
	dbPath, err := context.Config.HistoryDBPath()
	if err != nil {
		return fmt.Errorf("Cannot find a place for the history DB: %v", err)
	}
	if err = os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("Cannot create directory for history DB %s: %v", dbPath, err)
	}
	context.RecordDB, err = storage.NewBoltDB(dbPath)
	if err != nil {
		return fmt.Errorf("Cannot open history DB %s: %v", dbPath, err)
	}
	return nil
}

// TransportCredentials returns the user and password for
// Transport.Login. For S3, these are the AWS keys.
func (context *Context) TransportCredentials() (user, password string) {
	if context.Config.TransportType == constants.TransportS3 {
		return context.Config.GetAWSAccessKeyId(), context.Config.GetAWSSecretAccessKey()
	}
	return context.Config.FTPCredentials()
}

// Close releases the transport, the history DB and the notifier.
func (context *Context) Close() {
	if context.Transport != nil {
		if err := context.Transport.Close(); err != nil {
			context.MessageLog.Warning("Error closing transport: %v", err)
		}
	}
	if context.RecordDB != nil {
		context.RecordDB.Close()
	}
	if context.Notifier != nil {
		context.Notifier.Stop()
	}
}

// Returns the number of records that were ingested.
func (context *Context) Succeeded() int64 {
	return atomic.LoadInt64(&context.succeeded)
}

// Returns the number of records that failed.
func (context *Context) Failed() int64 {
	return atomic.LoadInt64(&context.failed)
}

// Returns the number of records that were skipped because they
// have supplemental files.
func (context *Context) Skipped() int64 {
	return atomic.LoadInt64(&context.skipped)
}

// Increases the count of ingested records by one.
func (context *Context) IncrementSucceeded() int64 {
	return atomic.AddInt64(&context.succeeded, 1)
}

// Increases the count of failed records by one.
func (context *Context) IncrementFailed() int64 {
	return atomic.AddInt64(&context.failed, 1)
}

// Increases the count of skipped records by one.
func (context *Context) IncrementSkipped() int64 {
	return atomic.AddInt64(&context.skipped, 1)
}

// Returns the path to this process' log file
func (context *Context) PathToLogFile() string {
	return context.pathToLogFile
}

// Returns the path to this process' JSON log file
func (context *Context) PathToJsonLog() string {
	return context.pathToJsonLog
}

// Logs info about the number of records that have succeeded, failed
// and been skipped.
func (context *Context) LogStats() {
	context.MessageLog.Info("**STATS** Succeeded: %d, Failed: %d, Skipped: %d",
		context.Succeeded(), context.Failed(), context.Skipped())
}
