package testutil_test

import (
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/util/fileutil"
	"github.com/etdloader/etdloader/util/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
)

func TestFindRecordInLog(t *testing.T) {
	defer setLoaderHome(t)()
	pathToLogFile, err := fileutil.RelativeToAbsPath(filepath.Join("testdata", "logs", "etd_load.json"))
	require.Nil(t, err)

	// Should get the LAST copy of the record if it appears
	// more than once. The first attempt at this one failed.
	record, err := testutil.FindRecordInLog(pathToLogFile, "etdadmin_upload_362114")
	require.Nil(t, err)
	assert.Equal(t, constants.StatusIngested, record.Status)
	assert.Equal(t, "etd:1542", record.PID)
	assert.Equal(t, 10, len(record.DatastreamsCreated))

	record, err = testutil.FindRecordInLog(pathToLogFile, "etdadmin_upload_362115")
	require.Nil(t, err)
	assert.True(t, record.HasSupplements)

	// Prefix of another name should not match.
	_, err = testutil.FindRecordInLog(pathToLogFile, "etdadmin_upload_36211")
	assert.NotNil(t, err)

	_, err = testutil.FindRecordInLog("/no/such/file.json", "etdadmin_upload_362114")
	assert.NotNil(t, err)
}
