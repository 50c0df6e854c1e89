// Common vars and constants, shared by many parts of the etdloader library.
package constants

import (
	"regexp"
)

// ArchiveExtension is the extension of the submission packages
// delivered to the incoming directory.
const ArchiveExtension = ".zip"

// MinArchiveNameLength is the length below which we refuse to even
// open an archive. A name like "a.zip" cannot come from the ETD vendor.
const MinArchiveNameLength = 5

// MinArchiveSize is the size in bytes below which a file cannot
// possibly be a zip archive.
const MinArchiveSize = 4

// DefaultFileMarker is the institution code that appears in the name
// of every file the ETD vendor delivers for us.
const DefaultFileMarker = "0016"

// PosixFileNamePattern matches valid POSIX filenames.
var PosixFileNamePattern = regexp.MustCompile("^[A-Za-z0-9\\._\\-]+$")

// NonAuthorChars matches everything we strip from a normalized author
// name after spaces have become hyphens.
var NonAuthorChars = regexp.MustCompile("[^A-Za-z0-9\\-]")

// Record status enumerations. A record moves through these in order.
// StatusFailed can be reached from any state. StatusSkipped and
// StatusFailed are terminal.
const (
	StatusScanned    = "scanned"
	StatusDownloaded = "downloaded"
	StatusSuccess    = "success"
	StatusSkipped    = "skipped"
	StatusProcessed  = "processed"
	StatusIngested   = "ingested"
	StatusFailed     = "failed"
)

var StatusTypes []string = []string{
	StatusScanned,
	StatusDownloaded,
	StatusSuccess,
	StatusSkipped,
	StatusProcessed,
	StatusIngested,
	StatusFailed,
}

// Processing steps, used to tag errors.
const (
	StepDownload    = "download"
	StepExtract     = "extract"
	StepMetadata    = "metadata"
	StepDatastreams = "datastreams"
	StepIngest      = "ingest"
	StepPostProcess = "post-process"
)

// Datastream IDs, in the order the builder creates them.
const (
	DsMODS        = "MODS"
	DsArchivalXML = "ARCHIVAL_XML"
	DsArchivalPDF = "ARCHIVAL_PDF"
	DsPDF         = "PDF"
	DsFullText    = "FULL_TEXT"
	DsThumbnail   = "TN"
	DsPreview     = "PREVIEW"
	DsRelsInt     = "RELS-INT"
	DsRelsExt     = "RELS-EXT"
	DsPolicy      = "POLICY"
)

var DatastreamIds []string = []string{
	DsMODS,
	DsArchivalXML,
	DsArchivalPDF,
	DsPDF,
	DsFullText,
	DsThumbnail,
	DsPreview,
	DsRelsInt,
	DsRelsExt,
	DsPolicy,
}

// Fedora datastream control groups.
const (
	ControlGroupInline     = "X"
	ControlGroupManaged    = "M"
	ControlGroupExternal   = "E"
	ControlGroupRedirected = "R"
)

// Fedora object and datastream states.
const (
	StateActive   = "A"
	StateInactive = "I"
	StateDeleted  = "D"
)

const (
	MimeTypeXML     = "application/xml"
	MimeTypeTextXML = "text/xml"
	MimeTypePDF     = "application/pdf"
	MimeTypeJPEG    = "image/jpeg"
	MimeTypePlain   = "text/plain"
	MimeTypeRDF     = "application/rdf+xml"
)

// Checksum types, as Fedora names them.
const (
	ChecksumSHA256   = "SHA-256"
	ChecksumDisabled = "DISABLED"
)

const (
	AlgMd5    = "md5"
	AlgSha256 = "sha256"
)

var ChecksumAlgorithms = []string{AlgMd5, AlgSha256}

// EmbargoIndefinite is the embargo value for records that carry neither
// an open access agreement nor an explicit release date.
const EmbargoIndefinite = "indefinite"

// Run modes. In dry-run mode, PIDs are synthesized and nothing is sent
// to the repository.
const (
	ModeProduction = "production"
	ModeDryRun     = "dryrun"
)

var RunModes []string = []string{ModeProduction, ModeDryRun}

// Splash page handling. SplashMerge attaches the rendered splash page
// to the front of the PDF. SplashCopy reproduces the historical loader,
// which rendered the page but deposited an unmodified copy of the PDF.
const (
	SplashMerge = "merge"
	SplashCopy  = "copy"
)

var SplashPageModes []string = []string{SplashMerge, SplashCopy}

// Transport types.
const (
	TransportFTP = "ftp"
	TransportS3  = "s3"
)

var TransportTypes []string = []string{TransportFTP, TransportS3}

// Placeholder tokens in the RELS-INT templates.
const (
	TokenPID     = "$PID$"
	TokenEmbargo = "$EMBARGO$"
)

// Fedora relationship vocabulary for RELS-EXT.
const (
	FedoraModelNamespace     = "info:fedora/fedora-system:def/model#"
	FedoraRelationsNamespace = "info:fedora/fedora-system:def/relations-external#"
	ETDContentModel          = "ir:citationCModel"
)

// Divider is written to the log between records.
const Divider = "----------------------------------------------------------------"
