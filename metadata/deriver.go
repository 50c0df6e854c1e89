// Package metadata derives descriptive metadata and access decisions
// from an ETD's submission metadata.
package metadata

import (
	"bytes"
	"fmt"
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/araddon/dateparse"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/network"
	"github.com/etdloader/etdloader/transform"
	"github.com/op/go-logging"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
)

type Deriver struct {
	config      *models.Config
	transformer transform.Transformer
	repository  network.Repository
	logger      *logging.Logger
}

func NewDeriver(config *models.Config, transformer transform.Transformer,
	repository network.Repository, logger *logging.Logger) *Deriver {
	return &Deriver{
		config:      config,
		transformer: transformer,
		repository:  repository,
		logger:      logger,
	}
}

// Derive fills in the record's access decisions, PID, label and
// author, writes the archival (MODS) metadata to <author>.xml and
// renames the PDF to <author>.pdf.
//
// It returns false with a nil error if the record has supplemental
// files, since there is nothing to derive. On failure, the error has
// already been added to the record. A *models.ProcessingError of
// kind ErrConfiguration means every other record will fail the same
// way.
func (deriver *Deriver) Derive(record *models.ETDRecord) (bool, error) {
	if record.HasSupplements || record.Status == constants.StatusSkipped {
		return false, nil
	}
	if record.MetadataPath == "" || record.PDFPath == "" {
		return false, record.AddCriticalError(constants.StepMetadata,
			"Cannot derive metadata without both a PDF and a metadata file")
	}
	archivalSS, err := deriver.transformer.LoadStylesheet(deriver.config.SubmissionToArchivalXSL)
	if err != nil {
		return false, deriver.configError(record, "Cannot load stylesheet %s: %v",
			deriver.config.SubmissionToArchivalXSL, err)
	}
	labelSS, err := deriver.transformer.LoadStylesheet(deriver.config.ArchivalToLabelXSL)
	if err != nil {
		return false, deriver.configError(record, "Cannot load stylesheet %s: %v",
			deriver.config.ArchivalToLabelXSL, err)
	}

	submission, err := ioutil.ReadFile(record.MetadataPath)
	if err != nil {
		return false, record.AddCriticalError(constants.StepMetadata, "Cannot read %s: %v",
			filepath.Base(record.MetadataPath), err)
	}
	doc, err := xmlquery.Parse(bytes.NewReader(submission))
	if err != nil {
		return false, record.AddCriticalError(constants.StepMetadata, "Cannot parse %s: %v",
			filepath.Base(record.MetadataPath), err)
	}
	if err = deriver.resolveAccess(record, doc); err != nil {
		return false, err
	}

	pid, err := deriver.repository.NextPID(deriver.config.PIDNamespace)
	if err != nil {
		return false, record.AddCriticalError(constants.StepMetadata, "Cannot get a PID in namespace %s: %v",
			deriver.config.PIDNamespace, err)
	}
	record.PID = pid

	archival, err := deriver.transformer.Transform(submission, archivalSS, map[string]string{"handle": pid})
	if err != nil {
		return false, record.AddCriticalError(constants.StepMetadata, "Cannot create archival metadata: %v", err)
	}
	label, err := deriver.transformer.TransformToText(archival, labelSS)
	if err != nil {
		return false, record.AddCriticalError(constants.StepMetadata, "Cannot get label from archival metadata: %v", err)
	}
	if label == "" {
		return false, record.AddCriticalError(constants.StepMetadata, "Archival metadata has no title")
	}
	record.Label = label

	if err = deriver.resolveAuthor(record, archival); err != nil {
		return false, err
	}
	if err = deriver.writeFiles(record, archival); err != nil {
		return false, err
	}
	record.Status = constants.StatusProcessed
	deriver.logger.Info("%s: pid=%s author=%s embargo=%s", record.Name, record.PID,
		record.NormalizedAuthor, record.EmbargoDate)
	return true, nil
}

func (deriver *Deriver) configError(record *models.ETDRecord, format string, a ...interface{}) error {
	err := models.NewConfigError(constants.StepMetadata, format, a...)
	record.AddError(err)
	return err
}

// resolveAccess sets the open access and embargo fields.
func (deriver *Deriver) resolveAccess(record *models.ETDRecord, doc *xmlquery.Node) error {
	node, err := deriver.query(doc, deriver.config.OpenAccessXPath)
	if err != nil {
		return deriver.configError(record, "Bad OpenAccessXPath: %v", err)
	}
	record.OpenAccessAvailable = false
	record.OpenAccessValue = "0"
	if node != nil && !IsFalsy(node.InnerText()) {
		record.OpenAccessAvailable = true
		record.OpenAccessValue = strings.TrimSpace(node.InnerText())
	}

	node, err = deriver.query(doc, deriver.config.EmbargoXPath)
	if err != nil {
		return deriver.configError(record, "Bad EmbargoXPath: %v", err)
	}
	record.HasEmbargo = false
	record.EmbargoDate = ""
	if node != nil && strings.TrimSpace(node.InnerText()) != "" {
		value := strings.TrimSpace(node.InnerText())
		record.HasEmbargo = true
		record.EmbargoDate = FormatEmbargoDate(value)
		if _, err := dateparse.ParseStrict(value); err != nil {
			record.AddNonCriticalError(constants.StepMetadata,
				"Embargo date '%s' does not look like a date: %v", value, err)
		}
	}

	// No open access and no release date means hold it indefinitely.
	if !record.OpenAccessAvailable && !record.HasEmbargo {
		record.HasEmbargo = true
		record.EmbargoDate = constants.EmbargoIndefinite
	}
	return nil
}

func (deriver *Deriver) resolveAuthor(record *models.ETDRecord, archival []byte) error {
	doc, err := xmlquery.Parse(bytes.NewReader(archival))
	if err != nil {
		return record.AddCriticalError(constants.StepMetadata, "Archival metadata is not valid XML: %v", err)
	}
	node, err := deriver.query(doc, deriver.config.AuthorXPath)
	if err != nil {
		return deriver.configError(record, "Bad AuthorXPath: %v", err)
	}
	if node == nil || strings.TrimSpace(node.InnerText()) == "" {
		return record.AddCriticalError(constants.StepMetadata, "Author not found in archival metadata")
	}
	record.AuthorName = strings.TrimSpace(node.InnerText())
	record.NormalizedAuthor = NormalizeAuthor(record.AuthorName)
	if record.NormalizedAuthor == "" {
		return record.AddCriticalError(constants.StepMetadata,
			"Author '%s' has nothing left after normalization", record.AuthorName)
	}
	return nil
}

func (deriver *Deriver) writeFiles(record *models.ETDRecord, archival []byte) error {
	record.PDFFileName = record.NormalizedAuthor + ".pdf"
	record.MetadataFileName = record.NormalizedAuthor + ".xml"
	record.FullTextFileName = record.NormalizedAuthor + ".txt"
	newPDFPath := filepath.Join(record.WorkingDirectory, record.PDFFileName)
	if err := os.Rename(record.PDFPath, newPDFPath); err != nil {
		return record.AddCriticalError(constants.StepMetadata, "Cannot rename %s to %s: %v",
			filepath.Base(record.PDFPath), record.PDFFileName, err)
	}
	record.PDFPath = newPDFPath
	if err := ioutil.WriteFile(record.ArchivalMetadataPath(), archival, 0644); err != nil {
		return record.AddCriticalError(constants.StepMetadata, "Cannot write %s: %v",
			record.MetadataFileName, err)
	}
	return nil
}

// query returns the first node matching expr, which may use any of
// the configured namespace prefixes.
func (deriver *Deriver) query(doc *xmlquery.Node, expr string) (*xmlquery.Node, error) {
	if expr == "" {
		return nil, fmt.Errorf("expression is empty")
	}
	compiled, err := xpath.CompileWithNS(expr, deriver.config.XPathNamespaces)
	if err != nil {
		return nil, err
	}
	return xmlquery.QuerySelector(doc, compiled), nil
}
