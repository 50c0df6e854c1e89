package storage_test

import (
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/util/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"os"
	"testing"
	"time"
)

func openTestDB(t *testing.T) (*storage.BoltDB, func()) {
	tempFile, err := ioutil.TempFile("", "boltdb_test")
	require.Nil(t, err)
	tempFile.Close()
	boltDB, err := storage.NewBoltDB(tempFile.Name())
	require.Nil(t, err)
	return boltDB, func() {
		boltDB.Close()
		os.Remove(tempFile.Name())
	}
}

func TestBoltDB(t *testing.T) {
	boltDB, cleanup := openTestDB(t)
	defer cleanup()

	record := models.NewETDRecord("etdadmin_upload_1.zip", "/tmp/etdadmin_upload_1")
	record.PID = "etd:1"
	record.Status = constants.StatusIngested
	record.AddDatastream(constants.DsMODS)
	record.StartedAt = time.Now().UTC()
	require.Nil(t, boltDB.Save(record))

	restored, err := boltDB.GetRecord("etdadmin_upload_1.zip")
	require.Nil(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, "etd:1", restored.PID)
	assert.Equal(t, []string{constants.DsMODS}, restored.DatastreamsCreated)
	assert.True(t, record.StartedAt.Equal(restored.StartedAt))

	missing, err := boltDB.GetRecord("etdadmin_upload_2.zip")
	require.Nil(t, err)
	assert.Nil(t, missing)

	assert.NotNil(t, boltDB.Save(nil))
	assert.NotNil(t, boltDB.Save(&models.ETDRecord{}))
}

func TestBoltDB_AlreadyIngested(t *testing.T) {
	boltDB, cleanup := openTestDB(t)
	defer cleanup()

	ingested := models.NewETDRecord("etdadmin_upload_1.zip", "/tmp/etdadmin_upload_1")
	ingested.Status = constants.StatusIngested
	failed := models.NewETDRecord("etdadmin_upload_2.zip", "/tmp/etdadmin_upload_2")
	failed.Status = constants.StatusFailed
	require.Nil(t, boltDB.Save(ingested))
	require.Nil(t, boltDB.Save(failed))

	assert.True(t, boltDB.AlreadyIngested("etdadmin_upload_1.zip"))
	assert.False(t, boltDB.AlreadyIngested("etdadmin_upload_2.zip"))
	assert.False(t, boltDB.AlreadyIngested("etdadmin_upload_3.zip"))

	// A later run that fails replaces the earlier result.
	ingested.Status = constants.StatusFailed
	require.Nil(t, boltDB.Save(ingested))
	assert.False(t, boltDB.AlreadyIngested("etdadmin_upload_1.zip"))
}

func TestBoltDB_KeyBatch(t *testing.T) {
	boltDB, cleanup := openTestDB(t)
	defer cleanup()

	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("etdadmin_upload_%d.zip", i)
		require.Nil(t, boltDB.Save(models.NewETDRecord(name, "/tmp/x")))
	}
	assert.Equal(t, 10, len(boltDB.Keys()))

	batch := boltDB.KeyBatch(0, 4)
	assert.Equal(t, []string{
		"etdadmin_upload_0.zip",
		"etdadmin_upload_1.zip",
		"etdadmin_upload_2.zip",
		"etdadmin_upload_3.zip",
	}, batch)
	assert.Equal(t, 2, len(boltDB.KeyBatch(8, 4)))
	assert.Equal(t, 0, len(boltDB.KeyBatch(20, 4)))
	assert.Equal(t, 0, len(boltDB.KeyBatch(-1, -1)))

	count := 0
	err := boltDB.ForEach(func(k, v []byte) error {
		count++
		return nil
	})
	require.Nil(t, err)
	assert.Equal(t, 10, count)
}

func TestBoltDB_LastRun(t *testing.T) {
	boltDB, cleanup := openTestDB(t)
	defer cleanup()

	assert.True(t, boltDB.LastRun().IsZero())
	now := time.Now().UTC().Truncate(time.Second)
	require.Nil(t, boltDB.SetLastRun(now))
	assert.True(t, now.Equal(boltDB.LastRun()))
	assert.NotEmpty(t, boltDB.FilePath())
}
