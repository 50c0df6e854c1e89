package testutil_test

import (
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func setLoaderHome(t *testing.T) func() {
	original := os.Getenv("ETDLOADER_HOME")
	home, err := filepath.Abs(filepath.Join("..", ".."))
	require.Nil(t, err)
	os.Setenv("ETDLOADER_HOME", home)
	return func() { os.Setenv("ETDLOADER_HOME", original) }
}

func TestLoadRecordFixture(t *testing.T) {
	defer setLoaderHome(t)()
	record, err := testutil.LoadRecordFixture(filepath.Join("testdata", "json_objects", "etd_record.json"))
	require.Nil(t, err)
	assert.Equal(t, "etdadmin_upload_362114", record.Name)
	assert.Equal(t, constants.StatusIngested, record.Status)
	assert.Equal(t, "2027-05-14T00:00:00Z", record.EmbargoDate)
	assert.Equal(t, constants.DatastreamIds, record.DatastreamsCreated)
	assert.False(t, record.StartedAt.IsZero())

	_, err = testutil.LoadRecordFixture(filepath.Join("testdata", "json_objects", "missing.json"))
	assert.NotNil(t, err)
}
