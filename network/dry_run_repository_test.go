package network_test

import (
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/network"
	"github.com/etdloader/etdloader/util"
	"github.com/etdloader/etdloader/util/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

func TestDryRunRepositoryNextPID(t *testing.T) {
	repo := network.NewDryRunRepository(logger.DiscardLogger("dry_run_test"))
	pid1, err := repo.NextPID("etd")
	require.Nil(t, err)
	pid2, err := repo.NextPID("etd")
	require.Nil(t, err)
	assert.True(t, strings.HasPrefix(pid1, "etd:"))
	assert.True(t, util.LooksLikePID(pid1))
	assert.NotEqual(t, pid1, pid2)
}

func TestDryRunRepositoryPolicy(t *testing.T) {
	repo := network.NewDryRunRepository(logger.DiscardLogger("dry_run_test"))
	obj, err := repo.GetObject("etd:embargo-policy")
	require.Nil(t, err)
	assert.Equal(t, "etd:embargo-policy", obj.PID)

	ds, err := repo.GetDatastream("etd:embargo-policy", constants.DsPolicy)
	require.Nil(t, err)
	require.NotNil(t, ds)
	assert.Equal(t, network.DryRunPolicy, ds.Content)

	ds, err = repo.GetDatastream("etd:embargo-policy", constants.DsMODS)
	assert.Nil(t, err)
	assert.Nil(t, ds)
}

func TestDryRunRepositoryIngest(t *testing.T) {
	repo := network.NewDryRunRepository(logger.DiscardLogger("dry_run_test"))
	obj := models.NewFedoraObject("etd:1")
	mods := models.NewDatastream(constants.DsMODS, constants.ControlGroupManaged)
	mods.SetContentFromString("<mods/>")
	require.Nil(t, obj.AddDatastream(mods))

	ingested, err := repo.IngestObject(obj)
	require.Nil(t, err)
	assert.Equal(t, obj, ingested)
	assert.Equal(t, 1, repo.IngestedCount())

	fetched, err := repo.GetObject("etd:1")
	require.Nil(t, err)
	assert.Equal(t, []string{constants.DsMODS}, fetched.DatastreamIds())

	text := models.NewDatastream(constants.DsFullText, constants.ControlGroupManaged)
	text.SetContentFromString("words")
	require.Nil(t, repo.AddDatastream("etd:1", text))
	ds, err := repo.GetDatastream("etd:1", constants.DsFullText)
	require.Nil(t, err)
	assert.Equal(t, "words", ds.Content)

	assert.Equal(t, network.ErrObjectNotFound, repo.AddDatastream("etd:404", text))

	empty := models.NewFedoraObject("etd:2")
	require.Nil(t, empty.AddDatastream(models.NewDatastream(constants.DsPDF, constants.ControlGroupManaged)))
	_, err = repo.IngestObject(empty)
	assert.NotNil(t, err)
}
