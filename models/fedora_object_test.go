package models_test

import (
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNewFedoraObject(t *testing.T) {
	obj := models.NewFedoraObject("etd:42")
	assert.Equal(t, "etd:42", obj.PID)
	assert.Equal(t, constants.StateActive, obj.State)
	assert.Empty(t, obj.Datastreams)
}

func TestFedoraObjectAddDatastream(t *testing.T) {
	obj := models.NewFedoraObject("etd:42")
	require.Nil(t, obj.AddDatastream(models.NewDatastream(constants.DsMODS, constants.ControlGroupManaged)))
	require.Nil(t, obj.AddDatastream(models.NewDatastream(constants.DsPDF, constants.ControlGroupManaged)))
	assert.NotNil(t, obj.AddDatastream(models.NewDatastream(constants.DsMODS, constants.ControlGroupInline)))
	assert.NotNil(t, obj.AddDatastream(nil))

	assert.Equal(t, []string{constants.DsMODS, constants.DsPDF}, obj.DatastreamIds())
	assert.NotNil(t, obj.FindDatastream(constants.DsPDF))
	assert.Nil(t, obj.FindDatastream(constants.DsPolicy))
}

func TestDatastreamContent(t *testing.T) {
	ds := models.NewDatastream(constants.DsFullText, constants.ControlGroupManaged)
	assert.Equal(t, constants.ChecksumSHA256, ds.ChecksumType)
	assert.Equal(t, constants.StateActive, ds.State)
	assert.False(t, ds.HasContent())

	ds.SetContentFromFile("/tmp/Smith.pdf")
	assert.True(t, ds.HasFileContent())
	assert.True(t, ds.HasContent())

	ds.SetContentFromString("full text")
	assert.False(t, ds.HasFileContent())
	assert.Equal(t, "", ds.ContentPath)
	assert.True(t, ds.HasContent())
}
