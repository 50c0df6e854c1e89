package models

import (
	"encoding/json"
	"flag"
	"fmt"
	"github.com/adrg/xdg"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/util"
	"github.com/etdloader/etdloader/util/fileutil"
	"github.com/op/go-logging"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

type Config struct {
	// ActiveConfig is the configuration currently
	// in use.
	ActiveConfig string

	// Mode is either "production" or "dryrun". In dryrun mode, the
	// loader synthesizes PIDs and does not send anything to Fedora.
	// Everything else (download, extraction, XSLT, external tools)
	// runs normally.
	Mode string

	// ArchivePattern is the glob pattern used to find submission
	// packages in the incoming directory. Defaults to "*.zip".
	ArchivePattern string

	// ArchivalToLabelXSL is the stylesheet that produces the object
	// label (the thesis title) from the MODS record. Relative paths
	// are relative to ETDLOADER_HOME.
	ArchivalToLabelXSL string

	// AuthorXPath locates the author's name in the MODS record.
	AuthorXPath string

	// ConvertPath is the path to ImageMagick's convert binary,
	// used to create thumbnails and previews.
	ConvertPath string

	// EmbargoCollectionPID is the collection that embargoed ETDs
	// are added to.
	EmbargoCollectionPID string

	// EmbargoPolicyParentPID is the object whose POLICY datastream
	// embargoed ETDs inherit.
	EmbargoPolicyParentPID string

	// EmbargoRelsIntTemplate is the RELS-INT template for ETDs
	// with an embargo release date.
	EmbargoRelsIntTemplate string

	// EmbargoXPath locates the delayed release date in the
	// submission metadata.
	EmbargoXPath string

	// FailedDirectory is the directory on the transport where we
	// move archives that failed to load.
	FailedDirectory string

	// FedoraRetries is the number of times the Fedora client
	// retries a request that failed with a network error or a 5xx.
	FedoraRetries int

	// FedoraTimeoutSeconds is the timeout for each Fedora request.
	FedoraTimeoutSeconds int

	// FedoraURL is the base URL of the Fedora REST API,
	// e.g. "http://localhost:8080/fedora"
	FedoraURL string

	// FileMarker is the institution code that appears in the name of
	// every file the ETD vendor packages for us. It is a regular
	// expression, though in practice it is a plain string like "0016".
	FileMarker string

	// FOPConfig is the Apache FOP configuration file used to render
	// splash pages.
	FOPConfig string

	// FOPPath is the path to the Apache FOP binary.
	FOPPath string

	// FTPHost is the host:port of the ETD vendor's FTP server.
	FTPHost string

	// FTPTimeoutSeconds is the dial timeout for the FTP server.
	FTPTimeoutSeconds int

	// HistoryDB is the path to the bolt database where we record the
	// outcome of every archive we process. If empty, the loader uses
	// etdloader/history.db under the XDG data directory.
	HistoryDB string

	// IncomingDirectory is the directory on the transport where
	// the ETD vendor drops new archives.
	IncomingDirectory string

	// LogDirectory is where we'll write our log files.
	LogDirectory string

	// LogLevel is defined in github.com/op/go-logging
	// and should be one of the following:
	// 1 - CRITICAL
	// 2 - ERROR
	// 3 - WARNING
	// 4 - NOTICE
	// 5 - INFO
	// 6 - DEBUG
	LogLevel logging.Level

	// If true, processes will log to STDERR in addition
	// to their standard log files. You really only want
	// to do this in development.
	LogToStderr bool

	// NsqdAddress is the TCP address of the nsqd instance that
	// receives a message for each finished record, e.g.
	// "127.0.0.1:4150". Leave empty to disable notifications.
	NsqdAddress string

	// NsqTopic is the topic for finished record notifications.
	NsqTopic string

	// OpenAccessXPath locates the open access indicator in the
	// submission metadata.
	OpenAccessXPath string

	// OpenCollectionPID is the collection that open access ETDs
	// are added to. Its POLICY datastream is inherited by them.
	OpenCollectionPID string

	// OwnerId is the Fedora ownerId for new objects.
	OwnerId string

	// PdftotextPath is the path to poppler's pdftotext. If empty,
	// the loader extracts text in-process, which is slower and
	// less accurate on complex layouts.
	PdftotextPath string

	// PermanentRelsIntTemplate is the RELS-INT template for ETDs
	// that are held indefinitely.
	PermanentRelsIntTemplate string

	// PIDNamespace is the Fedora namespace for new objects, e.g. "etd".
	PIDNamespace string

	// PreservationBucket is the S3 bucket that receives a copy of
	// every successfully ingested archive. Leave empty to disable.
	PreservationBucket string

	// PreservationEndpoint is normally empty. Set it to send the
	// preservation copy to an S3-compatible service other than AWS,
	// e.g. "http://localhost:9000".
	PreservationEndpoint string

	// PreservationRegion is the AWS region of PreservationBucket.
	PreservationRegion string

	// PreviewSize is the ImageMagick geometry of the PREVIEW image.
	PreviewSize string

	// ProcessedDirectory is the directory on the transport where we
	// move archives that were ingested.
	ProcessedDirectory string

	// ReportFile is where the batch summary is written at the end of
	// each run. Leave empty to print it only.
	ReportFile string

	// S3Bucket is the bucket that serves as the transport when
	// TransportType is "s3". Directories are key prefixes.
	S3Bucket string

	// S3Endpoint is the host (no protocol) of the S3-compatible
	// service used when TransportType is "s3".
	S3Endpoint string

	// S3UseSSL tells the S3 transport to use https.
	S3UseSSL bool

	// SkipAlreadyProcessed tells the batch loader not to reprocess
	// archives that the history DB says were already ingested.
	SkipAlreadyProcessed bool

	// SkippedDirectory is the directory on the transport where we
	// move archives that have supplemental files and need to be
	// loaded by hand.
	SkippedDirectory string

	// SplashPageMode is "merge" to put the rendered splash page in
	// front of the PDF, or "copy" to deposit the PDF unchanged.
	SplashPageMode string

	// SplashPageXSL is the XSL-FO stylesheet that FOP uses to render
	// the splash page from the MODS record.
	SplashPageXSL string

	// SubmissionToArchivalXSL transforms the vendor's submission
	// metadata into MODS. It receives the PID as param "handle".
	SubmissionToArchivalXSL string

	// ThumbnailSize is the ImageMagick geometry of the TN image.
	ThumbnailSize string

	// ToolTimeout is the maximum time any external tool may run.
	// The format is a Go duration, like "90s" or "10m".
	ToolTimeout string

	// TransportType is "ftp" or "s3".
	TransportType string

	// WorkingDirectory is the local directory under which each record
	// gets its own scratch directory. This should be on a volume
	// with plenty of free space.
	WorkingDirectory string

	// Workers is the number of records processed at the same time.
	// The default, 1, processes records one after another.
	Workers int

	// XPathNamespaces maps the prefixes used in the XPath settings
	// to namespace URIs.
	XPathNamespaces map[string]string

	// XsltprocPath is the path to libxslt's xsltproc binary.
	XsltprocPath string
}

// This returns the configuration that the user requested,
// which is specified in the -config flag when we run a
// program from the command line
func LoadConfigFile(pathToConfigFile string) (*Config, error) {
	file, err := fileutil.LoadRelativeFile(pathToConfigFile)
	if err != nil {
		detailedError := fmt.Errorf("Error reading config file '%s': %v\n",
			pathToConfigFile, err)
		return nil, detailedError
	}
	config := &Config{}
	err = json.Unmarshal(file, config)
	if err != nil {
		detailedError := fmt.Errorf("Error parsing JSON from config file '%s': %v",
			pathToConfigFile, err)
		return nil, detailedError
	}
	config.ActiveConfig = pathToConfigFile
	config.SetDefaults()
	return config, nil
}

// SetDefaults fills in settings the config file may leave out.
func (config *Config) SetDefaults() {
	if config.Mode == "" {
		config.Mode = constants.ModeProduction
	}
	if config.ArchivePattern == "" {
		config.ArchivePattern = "*" + constants.ArchiveExtension
	}
	if config.FileMarker == "" {
		config.FileMarker = constants.DefaultFileMarker
	}
	if config.TransportType == "" {
		config.TransportType = constants.TransportFTP
	}
	if config.SplashPageMode == "" {
		config.SplashPageMode = constants.SplashMerge
	}
	if config.ThumbnailSize == "" {
		config.ThumbnailSize = "200x200"
	}
	if config.PreviewSize == "" {
		config.PreviewSize = "500x700"
	}
	if config.ToolTimeout == "" {
		config.ToolTimeout = "10m"
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.FedoraTimeoutSeconds < 1 {
		config.FedoraTimeoutSeconds = 60
	}
	if config.FTPTimeoutSeconds < 1 {
		config.FTPTimeoutSeconds = 30
	}
	if config.XsltprocPath == "" {
		config.XsltprocPath = "xsltproc"
	}
	if config.NsqTopic == "" {
		config.NsqTopic = "etd_loaded"
	}
}

// Validate returns an error describing the first missing or invalid
// setting it finds.
func (config *Config) Validate() error {
	if !util.StringListContains(constants.RunModes, config.Mode) {
		return fmt.Errorf("Mode '%s' is not valid. Use one of %v", config.Mode, constants.RunModes)
	}
	if !util.StringListContains(constants.TransportTypes, config.TransportType) {
		return fmt.Errorf("TransportType '%s' is not valid. Use one of %v",
			config.TransportType, constants.TransportTypes)
	}
	if !util.StringListContains(constants.SplashPageModes, config.SplashPageMode) {
		return fmt.Errorf("SplashPageMode '%s' is not valid. Use one of %v",
			config.SplashPageMode, constants.SplashPageModes)
	}
	if _, err := regexp.Compile(config.FileMarker); err != nil {
		return fmt.Errorf("FileMarker '%s' is not a valid regular expression: %v", config.FileMarker, err)
	}
	if _, err := time.ParseDuration(config.ToolTimeout); err != nil {
		return fmt.Errorf("ToolTimeout '%s' is not a valid duration: %v", config.ToolTimeout, err)
	}
	required := map[string]string{
		"WorkingDirectory":         config.WorkingDirectory,
		"LogDirectory":             config.LogDirectory,
		"IncomingDirectory":        config.IncomingDirectory,
		"PIDNamespace":             config.PIDNamespace,
		"SubmissionToArchivalXSL":  config.SubmissionToArchivalXSL,
		"ArchivalToLabelXSL":       config.ArchivalToLabelXSL,
		"OpenAccessXPath":          config.OpenAccessXPath,
		"EmbargoXPath":             config.EmbargoXPath,
		"AuthorXPath":              config.AuthorXPath,
		"SplashPageXSL":            config.SplashPageXSL,
		"FOPPath":                  config.FOPPath,
		"ConvertPath":              config.ConvertPath,
		"PermanentRelsIntTemplate": config.PermanentRelsIntTemplate,
		"EmbargoRelsIntTemplate":   config.EmbargoRelsIntTemplate,
		"OpenCollectionPID":        config.OpenCollectionPID,
		"EmbargoCollectionPID":     config.EmbargoCollectionPID,
		"EmbargoPolicyParentPID":   config.EmbargoPolicyParentPID,
	}
	for _, name := range sortedKeys(required) {
		if required[name] == "" {
			return fmt.Errorf("You must define config.%s", name)
		}
	}
	if config.TransportType == constants.TransportFTP && config.FTPHost == "" {
		return fmt.Errorf("You must define config.FTPHost when TransportType is ftp")
	}
	if config.TransportType == constants.TransportS3 && (config.S3Endpoint == "" || config.S3Bucket == "") {
		return fmt.Errorf("You must define config.S3Endpoint and config.S3Bucket when TransportType is s3")
	}
	if !config.IsDryRun() && !util.LooksLikeURL(config.FedoraURL) {
		return fmt.Errorf("FedoraURL '%s' does not look like a URL", config.FedoraURL)
	}
	return nil
}

// Ensures that the logging and working directories exist, creating
// them if necessary. Returns the absolute path the logging directory.
func (config *Config) EnsureLogDirectory() (string, error) {
	err := config.EnsureDirectories()
	if err != nil {
		return "", err
	}
	return config.AbsLogDirectory(), nil
}

// EnsureDirectories expands file paths and creates the working and
// log directories if they don't exist.
func (config *Config) EnsureDirectories() error {
	config.ExpandFilePaths()
	return config.createDirectories()
}

func (config *Config) AbsLogDirectory() string {
	absLogDir, err := filepath.Abs(config.LogDirectory)
	if err != nil {
		msg := fmt.Sprintf("Cannot get absolute path to log directory. "+
			"config.LogDirectory is set to '%s'", config.LogDirectory)
		panic(msg)
	}
	return absLogDir
}

// EnsureFedoraConfig makes sure we have what we need to talk to
// Fedora. Dry runs never talk to Fedora.
func (config *Config) EnsureFedoraConfig() error {
	if config.IsDryRun() {
		return nil
	}
	if config.FedoraURL == "" {
		return fmt.Errorf("FedoraURL is missing from config file")
	}
	if os.Getenv("FEDORA_USER") == "" {
		return fmt.Errorf("Environment variable FEDORA_USER is not set")
	}
	if os.Getenv("FEDORA_PASSWORD") == "" {
		return fmt.Errorf("Environment variable FEDORA_PASSWORD is not set")
	}
	return nil
}

// Expands ~ file paths and converts stylesheet and template paths
// that are relative to ETDLOADER_HOME into absolute paths.
func (config *Config) ExpandFilePaths() {
	for _, dir := range []*string{
		&config.WorkingDirectory,
		&config.LogDirectory,
		&config.HistoryDB,
		&config.ReportFile,
	} {
		expanded, err := fileutil.ExpandTilde(*dir)
		if err == nil {
			*dir = expanded
		}
	}
	for _, file := range []*string{
		&config.SubmissionToArchivalXSL,
		&config.ArchivalToLabelXSL,
		&config.SplashPageXSL,
		&config.FOPConfig,
		&config.PermanentRelsIntTemplate,
		&config.EmbargoRelsIntTemplate,
	} {
		if *file == "" || filepath.IsAbs(*file) {
			continue
		}
		expanded, err := fileutil.RelativeToAbsPath(*file)
		if err == nil {
			*file = expanded
		}
	}
}

func (config *Config) createDirectories() error {
	if config.WorkingDirectory == "" {
		return fmt.Errorf("You must define config.WorkingDirectory")
	}
	if config.LogDirectory == "" {
		return fmt.Errorf("You must define config.LogDirectory")
	}
	for _, dir := range []string{config.WorkingDirectory, config.LogDirectory} {
		if !fileutil.FileExists(dir) {
			err := os.MkdirAll(dir, 0755)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// IsDryRun returns true if the loader should not talk to Fedora.
func (config *Config) IsDryRun() bool {
	return config.Mode == constants.ModeDryRun
}

// ToolTimeoutDuration returns ToolTimeout as a time.Duration,
// or ten minutes if ToolTimeout cannot be parsed.
func (config *Config) ToolTimeoutDuration() time.Duration {
	duration, err := time.ParseDuration(config.ToolTimeout)
	if err != nil || duration <= 0 {
		return 10 * time.Minute
	}
	return duration
}

// HistoryDBPath returns the path to the run history database.
func (config *Config) HistoryDBPath() (string, error) {
	if config.HistoryDB != "" {
		return config.HistoryDB, nil
	}
	return xdg.DataFile(filepath.Join("etdloader", "history.db"))
}

// RecordWorkingDirectory returns the scratch directory for the
// record with the specified name.
func (config *Config) RecordWorkingDirectory(recordName string) string {
	return filepath.Join(config.WorkingDirectory, recordName)
}

// TestsAreRunning returns true if we're running unit or integration
// tests; false otherwise.
func (config *Config) TestsAreRunning() bool {
	return flag.Lookup("test.v") != nil
}

// FTPCredentials returns the FTP user and password from the environment.
func (config *Config) FTPCredentials() (user, password string) {
	return os.Getenv("ETD_FTP_USER"), os.Getenv("ETD_FTP_PASSWORD")
}

// FedoraCredentials returns the Fedora user and password from the
// environment.
func (config *Config) FedoraCredentials() (user, password string) {
	return os.Getenv("FEDORA_USER"), os.Getenv("FEDORA_PASSWORD")
}

// GetAWSAccessKeyId returns the AWS Access Key ID from the environment,
// or an empty string if the ENV var isn't set. In test context, this
// returns a dummy key id.
func (config *Config) GetAWSAccessKeyId() string {
	keyId := os.Getenv("AWS_ACCESS_KEY_ID")
	if keyId == "" && config.TestsAreRunning() {
		keyId = "TestKeyId"
	}
	return keyId
}

// GetAWSAccessSecretAccessKey returns the AWS Secret Access Key
// from the environment, or an empty string if the ENV var isn't set.
// In test context, this returns a dummy key.
func (config *Config) GetAWSSecretAccessKey() string {
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if secretKey == "" && config.TestsAreRunning() {
		secretKey = "TestSecretKey"
	}
	return secretKey
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
