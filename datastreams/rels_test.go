package datastreams_test

import (
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/datastreams"
	"github.com/etdloader/etdloader/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestChooseRelsInt(t *testing.T) {
	testCases := []struct {
		openAccess  bool
		hasEmbargo  bool
		embargoDate string
		expected    string
	}{
		{true, false, "", datastreams.RelsIntNone},
		{false, true, constants.EmbargoIndefinite, datastreams.RelsIntPermanent},
		{false, true, "2030-01-01T00:00:00Z", datastreams.RelsIntEmbargo},
		{true, true, "2030-01-01T00:00:00Z", datastreams.RelsIntEmbargo},
		{false, false, "", datastreams.RelsIntPermanent},
	}
	for _, tc := range testCases {
		record := models.NewETDRecord("etdadmin_upload_1.zip", "/tmp/etdadmin_upload_1")
		record.OpenAccessAvailable = tc.openAccess
		record.HasEmbargo = tc.hasEmbargo
		record.EmbargoDate = tc.embargoDate
		assert.Equal(t, tc.expected, datastreams.ChooseRelsInt(record),
			"openAccess=%v embargo=%s", tc.openAccess, tc.embargoDate)
	}
}

func TestChooseCollection(t *testing.T) {
	config := &models.Config{
		OpenCollectionPID:      "etd:open",
		EmbargoCollectionPID:   "etd:embargoed",
		EmbargoPolicyParentPID: "etd:embargo-policy",
	}
	record := models.NewETDRecord("etdadmin_upload_1.zip", "/tmp/etdadmin_upload_1")
	collection, parent := datastreams.ChooseCollection(config, record)
	assert.Equal(t, "etd:open", collection)
	assert.Equal(t, "etd:open", parent)

	record.HasEmbargo = true
	record.EmbargoDate = constants.EmbargoIndefinite
	collection, parent = datastreams.ChooseCollection(config, record)
	assert.Equal(t, "etd:embargoed", collection)
	assert.Equal(t, "etd:embargo-policy", parent)
}

func TestRelsExt(t *testing.T) {
	record := models.NewETDRecord("etdadmin_upload_1.zip", "/tmp/etdadmin_upload_1")
	record.PID = "etd:42"
	record.CollectionPID = "etd:open"
	rels, err := datastreams.RelsExt(record)
	require.Nil(t, err)
	assert.True(t, strings.Contains(rels, `rdf:about="info:fedora/etd:42"`))
	assert.True(t, strings.Contains(rels, `rdf:resource="info:fedora/etd:open"`))
	assert.True(t, strings.Contains(rels, "info:fedora/"+datastreams.ThesisContentModel))
}
