package datastreams

import (
	"bytes"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"text/template"
)

// ThesisContentModel is the content model every ETD object gets.
const ThesisContentModel = "ir:thesisCModel"

var relsExtTemplate = template.Must(template.New("RELS-EXT").Parse(
	`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:fedora="info:fedora/fedora-system:def/relations-external#"
         xmlns:fedora-model="info:fedora/fedora-system:def/model#">
  <rdf:Description rdf:about="info:fedora/{{.PID}}">
    <fedora:isMemberOfCollection rdf:resource="info:fedora/{{.CollectionPID}}"/>
    <fedora-model:hasModel rdf:resource="info:fedora/{{.ContentModel}}"/>
  </rdf:Description>
</rdf:RDF>
`))

// RelsExt returns the RELS-EXT for record, putting it in its
// collection with the thesis content model.
func RelsExt(record *models.ETDRecord) (string, error) {
	var buf bytes.Buffer
	data := struct {
		PID           string
		CollectionPID string
		ContentModel  string
	}{record.PID, record.CollectionPID, ThesisContentModel}
	err := relsExtTemplate.Execute(&buf, data)
	return buf.String(), err
}

// Which RELS-INT template applies to a record. RelsIntNone means the
// record is open access with no embargo and gets no RELS-INT.
const (
	RelsIntNone      = ""
	RelsIntPermanent = "permanent"
	RelsIntEmbargo   = "embargo"
)

// ChooseRelsInt picks the RELS-INT template for record. A concrete
// embargo date always wins, even when open access is available.
// Without one, a record that lacks open access is restricted
// permanently.
func ChooseRelsInt(record *models.ETDRecord) string {
	if record.HasEmbargo && record.EmbargoDate != "" && record.EmbargoDate != constants.EmbargoIndefinite {
		return RelsIntEmbargo
	}
	if !record.OpenAccessAvailable {
		return RelsIntPermanent
	}
	return RelsIntNone
}

// ChooseCollection returns the collection a record belongs in and the
// object whose POLICY it inherits. Records under any embargo,
// indefinite included, go in the embargo collection.
func ChooseCollection(config *models.Config, record *models.ETDRecord) (collectionPID, policyParentPID string) {
	if record.HasEmbargo {
		return config.EmbargoCollectionPID, config.EmbargoPolicyParentPID
	}
	return config.OpenCollectionPID, config.OpenCollectionPID
}
