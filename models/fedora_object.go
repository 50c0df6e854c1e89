package models

import (
	"fmt"
	"github.com/etdloader/etdloader/constants"
)

// FedoraObject is a digital object in the Fedora repository. The
// loader builds one of these locally, attaches datastreams to it,
// and then ingests it.
type FedoraObject struct {
	PID     string
	Label   string
	OwnerId string
	State   string

	// Datastreams are kept in the order they were added,
	// which is the order in which they are deposited.
	Datastreams []*Datastream
}

// NewFedoraObject returns an active, empty object with the specified PID.
func NewFedoraObject(pid string) *FedoraObject {
	return &FedoraObject{
		PID:         pid,
		State:       constants.StateActive,
		Datastreams: make([]*Datastream, 0),
	}
}

// AddDatastream appends ds to the object. Returns an error if the
// object already has a datastream with the same id.
func (obj *FedoraObject) AddDatastream(ds *Datastream) error {
	if ds == nil {
		return fmt.Errorf("Cannot add nil datastream to %s", obj.PID)
	}
	if obj.FindDatastream(ds.ID) != nil {
		return fmt.Errorf("Object %s already has datastream %s", obj.PID, ds.ID)
	}
	obj.Datastreams = append(obj.Datastreams, ds)
	return nil
}

// FindDatastream returns the datastream with the specified id,
// or nil.
func (obj *FedoraObject) FindDatastream(dsId string) *Datastream {
	for _, ds := range obj.Datastreams {
		if ds.ID == dsId {
			return ds
		}
	}
	return nil
}

// DatastreamIds returns the ids of all datastreams, in order.
func (obj *FedoraObject) DatastreamIds() []string {
	ids := make([]string, len(obj.Datastreams))
	for i, ds := range obj.Datastreams {
		ids[i] = ds.ID
	}
	return ids
}

// Datastream is one named content part of a FedoraObject. Its
// content comes either from a local file (ContentPath) or from
// a string (Content).
type Datastream struct {
	ID           string
	ControlGroup string
	Label        string
	MimeType     string
	ChecksumType string
	Checksum     string
	State        string
	Versionable  bool

	ContentPath string
	Content     string
}

// NewDatastream returns an active datastream with SHA-256 checksums.
func NewDatastream(id, controlGroup string) *Datastream {
	return &Datastream{
		ID:           id,
		ControlGroup: controlGroup,
		ChecksumType: constants.ChecksumSHA256,
		State:        constants.StateActive,
		Versionable:  true,
	}
}

// SetContentFromFile points the datastream at a local file.
func (ds *Datastream) SetContentFromFile(path string) {
	ds.ContentPath = path
	ds.Content = ""
}

// SetContentFromString sets the datastream's content directly.
func (ds *Datastream) SetContentFromString(content string) {
	ds.Content = content
	ds.ContentPath = ""
}

func (ds *Datastream) HasFileContent() bool {
	return ds.ContentPath != ""
}

// HasContent returns true if the datastream has a file or a
// non-empty string as its content.
func (ds *Datastream) HasContent() bool {
	return ds.ContentPath != "" || ds.Content != ""
}
