// Package datastreams builds the Fedora datastreams for a processed
// ETD record.
package datastreams

import (
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/network"
	"github.com/etdloader/etdloader/platform"
	"github.com/etdloader/etdloader/tools"
	"github.com/etdloader/etdloader/util"
	"github.com/etdloader/etdloader/util/fileutil"
	"github.com/op/go-logging"
	"io/ioutil"
	"path/filepath"
	"strings"
)

type Builder struct {
	config     *models.Config
	toolkit    *tools.Toolkit
	repository network.Repository
	logger     *logging.Logger
}

func NewBuilder(config *models.Config, toolkit *tools.Toolkit, repository network.Repository,
	logger *logging.Logger) *Builder {
	return &Builder{
		config:     config,
		toolkit:    toolkit,
		repository: repository,
		logger:     logger,
	}
}

// build is one step of the build. It returns nil and no error when
// there is nothing to build.
type build func(record *models.ETDRecord) (*models.Datastream, error)

// Build returns a FedoraObject with all of the record's datastreams,
// built in a fixed order. The first failure is added to the record
// and stops the build. Returns nil and no error for records that are
// being skipped.
func (builder *Builder) Build(record *models.ETDRecord) (*models.FedoraObject, error) {
	if record.HasSupplements || record.Status == constants.StatusSkipped {
		return nil, nil
	}
	if record.Status != constants.StatusProcessed {
		return nil, record.AddCriticalError(constants.StepDatastreams,
			"Cannot build datastreams for a record with status %s", record.Status)
	}

	// The collection and policy are settled before anything is built,
	// but POLICY goes in last.
	record.CollectionPID, record.PolicyParentPID = ChooseCollection(builder.config, record)
	policy, err := builder.fetchPolicy(record)
	if err != nil {
		record.AddError(err)
		return nil, err
	}

	obj := models.NewFedoraObject(record.PID)
	obj.Label = record.Label
	obj.OwnerId = builder.config.OwnerId
	steps := []struct {
		id string
		fn build
	}{
		{constants.DsMODS, builder.buildMODS},
		{constants.DsArchivalXML, builder.buildArchivalXML},
		{constants.DsArchivalPDF, builder.buildArchivalPDF},
		{constants.DsPDF, builder.buildPDF},
		{constants.DsFullText, builder.buildFullText},
		{constants.DsThumbnail, builder.buildThumbnail},
		{constants.DsPreview, builder.buildPreview},
		{constants.DsRelsInt, builder.buildRelsInt},
		{constants.DsRelsExt, builder.buildRelsExt},
		{constants.DsPolicy, func(*models.ETDRecord) (*models.Datastream, error) { return policy, nil }},
	}
	for _, step := range steps {
		ds, err := step.fn(record)
		if err != nil {
			procErr := models.NewDatastreamError(constants.StepDatastreams, step.id, "%v", err)
			record.AddError(procErr)
			return nil, procErr
		}
		if ds == nil {
			builder.logger.Debug("%s: no %s datastream needed", record.Name, step.id)
			continue
		}
		if err = builder.finish(record, ds); err != nil {
			procErr := models.NewDatastreamError(constants.StepDatastreams, step.id, "%v", err)
			record.AddError(procErr)
			return nil, procErr
		}
		if err = obj.AddDatastream(ds); err != nil {
			procErr := models.NewDatastreamError(constants.StepDatastreams, step.id, "%v", err)
			record.AddError(procErr)
			return nil, procErr
		}
		record.AddDatastream(ds.ID)
		builder.logger.Debug("%s: built %s", record.Name, ds.ID)
	}
	return obj, nil
}

// fetchPolicy gets the POLICY of the record's policy parent.
func (builder *Builder) fetchPolicy(record *models.ETDRecord) (*models.Datastream, error) {
	parentPID := record.PolicyParentPID
	if parentPID == "" {
		return nil, models.NewDatastreamError(constants.StepDatastreams, constants.DsPolicy,
			"No policy parent is configured for this record")
	}
	if _, err := builder.repository.GetObject(parentPID); err != nil {
		if err == network.ErrObjectNotFound {
			return nil, models.NewDatastreamError(constants.StepDatastreams, constants.DsPolicy,
				"Policy parent %s does not exist", parentPID)
		}
		return nil, models.NewDatastreamError(constants.StepDatastreams, constants.DsPolicy,
			"Cannot get policy parent %s: %v", parentPID, err)
	}
	parentPolicy, err := builder.repository.GetDatastream(parentPID, constants.DsPolicy)
	if err != nil {
		return nil, models.NewDatastreamError(constants.StepDatastreams, constants.DsPolicy,
			"Cannot get POLICY of %s: %v", parentPID, err)
	}
	if parentPolicy == nil || parentPolicy.Content == "" {
		return nil, models.NewDatastreamError(constants.StepDatastreams, constants.DsPolicy,
			"Policy parent %s has no POLICY datastream", parentPID)
	}
	policy := models.NewDatastream(constants.DsPolicy, constants.ControlGroupInline)
	policy.Label = "XACML Policy Stream"
	policy.MimeType = constants.MimeTypeTextXML
	policy.SetContentFromString(parentPolicy.Content)
	return policy, nil
}

// finish computes the checksum and, for files, checks the mime type.
func (builder *Builder) finish(record *models.ETDRecord, ds *models.Datastream) error {
	if !ds.HasFileContent() {
		ds.Checksum = fileutil.StringChecksum(ds.Content)
		return nil
	}
	checksum, err := fileutil.CalculateChecksum(ds.ContentPath, constants.AlgSha256)
	if err != nil {
		return fmt.Errorf("Cannot calculate checksum of %s: %v", filepath.Base(ds.ContentPath), err)
	}
	ds.Checksum = checksum
	guessed, err := platform.GuessMimeType(ds.ContentPath)
	if err != nil {
		record.AddNonCriticalError(constants.StepDatastreams, "Cannot identify type of %s: %v",
			filepath.Base(ds.ContentPath), err)
	} else if !platform.MimeTypesMatch(ds.MimeType, guessed) {
		record.AddNonCriticalError(constants.StepDatastreams, "%s should be %s but looks like %s",
			filepath.Base(ds.ContentPath), ds.MimeType, guessed)
	}
	return nil
}

func fileDatastream(id, label, mimeType, path string) *models.Datastream {
	ds := models.NewDatastream(id, constants.ControlGroupManaged)
	ds.Label = label
	ds.MimeType = mimeType
	ds.SetContentFromFile(path)
	return ds
}

func (builder *Builder) workFile(record *models.ETDRecord, suffix string) string {
	return filepath.Join(record.WorkingDirectory, record.NormalizedAuthor+suffix)
}

func (builder *Builder) buildMODS(record *models.ETDRecord) (*models.Datastream, error) {
	path := record.ArchivalMetadataPath()
	if !fileutil.FileExists(path) {
		return nil, fmt.Errorf("MODS file %s does not exist", record.MetadataFileName)
	}
	return fileDatastream(constants.DsMODS, "MODS Record", constants.MimeTypeTextXML, path), nil
}

func (builder *Builder) buildArchivalXML(record *models.ETDRecord) (*models.Datastream, error) {
	if !fileutil.FileExists(record.MetadataPath) {
		return nil, fmt.Errorf("Original metadata %s does not exist", filepath.Base(record.MetadataPath))
	}
	label := strings.TrimSuffix(filepath.Base(record.MetadataPath), filepath.Ext(record.MetadataPath))
	return fileDatastream(constants.DsArchivalXML, label, constants.MimeTypeTextXML, record.MetadataPath), nil
}

func (builder *Builder) buildArchivalPDF(record *models.ETDRecord) (*models.Datastream, error) {
	if !fileutil.FileExists(record.PDFPath) {
		return nil, fmt.Errorf("PDF %s does not exist", filepath.Base(record.PDFPath))
	}
	return fileDatastream(constants.DsArchivalPDF, "Archival PDF", constants.MimeTypePDF, record.PDFPath), nil
}

// buildPDF puts a splash page, rendered from the MODS, in front of
// the PDF.
func (builder *Builder) buildPDF(record *models.ETDRecord) (*models.Datastream, error) {
	splashPath := builder.workFile(record, "_splash.pdf")
	err := builder.toolkit.Renderer.Render(builder.config.SplashPageXSL, record.ArchivalMetadataPath(), splashPath)
	if err != nil {
		return nil, fmt.Errorf("Cannot render splash page: %v", err)
	}
	mergedPath := builder.workFile(record, "_with_splash.pdf")
	if err = builder.toolkit.Merger.Merge(mergedPath, splashPath, record.PDFPath); err != nil {
		return nil, fmt.Errorf("Cannot add splash page: %v", err)
	}
	return fileDatastream(constants.DsPDF, "PDF", constants.MimeTypePDF, mergedPath), nil
}

func (builder *Builder) buildFullText(record *models.ETDRecord) (*models.Datastream, error) {
	textPath := record.FullTextPath()
	if err := builder.toolkit.TextExtractor.ExtractText(record.PDFPath, textPath); err != nil {
		return nil, fmt.Errorf("Cannot extract text: %v", err)
	}
	data, err := ioutil.ReadFile(textPath)
	if err != nil {
		return nil, fmt.Errorf("Cannot read extracted text: %v", err)
	}
	text := util.StripControlCharacters(string(data))
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("No text could be extracted from %s", record.PDFFileName)
	}
	ds := models.NewDatastream(constants.DsFullText, constants.ControlGroupManaged)
	ds.Label = "FULL_TEXT"
	ds.MimeType = constants.MimeTypePlain
	ds.SetContentFromString(text)
	return ds, nil
}

func (builder *Builder) buildThumbnail(record *models.ETDRecord) (*models.Datastream, error) {
	return builder.buildImage(record, constants.DsThumbnail, "Thumbnail", "_TN.jpg", builder.config.ThumbnailSize)
}

func (builder *Builder) buildPreview(record *models.ETDRecord) (*models.Datastream, error) {
	return builder.buildImage(record, constants.DsPreview, "Preview", "_PREVIEW.jpg", builder.config.PreviewSize)
}

func (builder *Builder) buildImage(record *models.ETDRecord, id, label, suffix, size string) (*models.Datastream, error) {
	imagePath := builder.workFile(record, suffix)
	if err := builder.toolkit.ImageConverter.Convert(record.PDFPath, imagePath, size); err != nil {
		return nil, fmt.Errorf("Cannot create %s image: %v", size, err)
	}
	return fileDatastream(id, label, constants.MimeTypeJPEG, imagePath), nil
}

func (builder *Builder) buildRelsInt(record *models.ETDRecord) (*models.Datastream, error) {
	var templatePath string
	switch ChooseRelsInt(record) {
	case RelsIntEmbargo:
		templatePath = builder.config.EmbargoRelsIntTemplate
	case RelsIntPermanent:
		templatePath = builder.config.PermanentRelsIntTemplate
	default:
		return nil, nil
	}
	template, err := ioutil.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("Cannot read RELS-INT template: %v", err)
	}
	content := util.ReplaceTokens(string(template), map[string]string{
		"$PID$":     record.PID,
		"$EMBARGO$": record.EmbargoDate,
	})
	ds := models.NewDatastream(constants.DsRelsInt, constants.ControlGroupInline)
	ds.Label = "Fedora Relationship Metadata"
	ds.MimeType = constants.MimeTypeRDF
	ds.SetContentFromString(content)
	return ds, nil
}

func (builder *Builder) buildRelsExt(record *models.ETDRecord) (*models.Datastream, error) {
	if record.CollectionPID == "" {
		return nil, fmt.Errorf("No collection is configured for this record")
	}
	content, err := RelsExt(record)
	if err != nil {
		return nil, err
	}
	ds := models.NewDatastream(constants.DsRelsExt, constants.ControlGroupInline)
	ds.Label = "Fedora Object to Object Relationship Metadata."
	ds.MimeType = constants.MimeTypeRDF
	ds.SetContentFromString(content)
	return ds, nil
}
