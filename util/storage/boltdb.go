package storage

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"github.com/boltdb/bolt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"time"
)

const RECORD_BUCKET = "records"
const SPECIAL_BUCKET = "special"
const LAST_RUN = "last run"

// BoltDB is the loader's run history: a single-file key-value store
// holding the final state of every ETDRecord the batch loader has
// processed, keyed by archive name. The batch loader consults it to
// avoid re-ingesting archives that are still sitting in the incoming
// directory. Bolt allows one writer and many readers, so one BoltDB
// can be shared by records processed in parallel.
type BoltDB struct {
	db       *bolt.DB
	filePath string
}

// NewBoltDB opens a bolt database, creating the DB file if it doesn't
// already exist.
func NewBoltDB(filePath string) (boltDB *BoltDB, err error) {
	db, err := bolt.Open(filePath, 0644, &bolt.Options{Timeout: 5 * time.Second})
	if err == nil {
		boltDB = &BoltDB{
			db:       db,
			filePath: filePath,
		}
		err = boltDB.initBuckets()
	}
	return boltDB, err
}

func (boltDB *BoltDB) initBuckets() error {
	err := boltDB.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(RECORD_BUCKET))
		if err != nil {
			return fmt.Errorf("Error creating records bucket: %s", err)
		}
		_, err = tx.CreateBucketIfNotExists([]byte(SPECIAL_BUCKET))
		if err != nil {
			return fmt.Errorf("Error creating special bucket: %s", err)
		}
		return nil
	})
	return err
}

// FilePath returns the path to the bolt DB file.
func (boltDB *BoltDB) FilePath() string {
	return boltDB.filePath
}

// Close closes the bolt database.
func (boltDB *BoltDB) Close() {
	boltDB.db.Close()
}

// Save saves record under its archive name, replacing whatever
// was saved for that archive on an earlier run.
func (boltDB *BoltDB) Save(record *models.ETDRecord) error {
	if record == nil || record.ArchiveName == "" {
		return fmt.Errorf("Cannot save a record without an archive name")
	}
	var byteSlice []byte
	buf := bytes.NewBuffer(byteSlice)
	encoder := gob.NewEncoder(buf)
	err := encoder.Encode(record)
	if err == nil {
		err = boltDB.db.Update(func(tx *bolt.Tx) error {
			bucket := tx.Bucket([]byte(RECORD_BUCKET))
			return bucket.Put([]byte(record.ArchiveName), buf.Bytes())
		})
	}
	return err
}

// GetRecord returns the record saved for the specified archive.
// If there is none, this returns nil and no error.
func (boltDB *BoltDB) GetRecord(archiveName string) (*models.ETDRecord, error) {
	var err error
	record := &models.ETDRecord{}
	err = boltDB.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(RECORD_BUCKET))
		value := bucket.Get([]byte(archiveName))
		if len(value) > 0 {
			buf := bytes.NewBuffer(value)
			decoder := gob.NewDecoder(buf)
			err = decoder.Decode(record)
		} else {
			record = nil
		}
		return err
	})
	return record, err
}

// AlreadyIngested returns true if the archive was ingested on an
// earlier run.
func (boltDB *BoltDB) AlreadyIngested(archiveName string) bool {
	record, err := boltDB.GetRecord(archiveName)
	return err == nil && record != nil && record.Status == constants.StatusIngested
}

// ForEach calls the specified function for each key in the database's
// records bucket.
func (boltDB *BoltDB) ForEach(fn func(k, v []byte) error) error {
	return boltDB.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(RECORD_BUCKET))
		return bucket.ForEach(fn)
	})
}

// Keys returns the names of all archives in the database.
func (boltDB *BoltDB) Keys() []string {
	keys := make([]string, 0)
	boltDB.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(RECORD_BUCKET))
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys
}

// KeyBatch returns a list of archive names from offset (zero-based)
// up to limit, or end of list.
func (boltDB *BoltDB) KeyBatch(offset, limit int) []string {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	index := 0
	end := offset + limit
	keys := make([]string, 0)
	boltDB.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(RECORD_BUCKET))
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if index >= offset && index < end {
				keys = append(keys, string(k))
			}
			index++
		}
		return nil
	})
	return keys
}

// SetLastRun records when the batch loader last finished.
func (boltDB *BoltDB) SetLastRun(ts time.Time) error {
	return boltDB.saveSpecial(LAST_RUN, ts.UTC().Format(time.RFC3339))
}

// LastRun returns the time the batch loader last finished, or the
// zero time if it never has.
func (boltDB *BoltDB) LastRun() time.Time {
	ts, err := time.Parse(time.RFC3339, boltDB.getSpecial(LAST_RUN))
	if err != nil {
		return time.Time{}
	}
	return ts
}

// saveSpecial is for internal use, to save special keys, like the
// last run timestamp.
func (boltDB *BoltDB) saveSpecial(key string, value string) error {
	err := boltDB.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(SPECIAL_BUCKET))
		err := bucket.Put([]byte(key), []byte(value))
		return err
	})
	return err
}

// getSpecial is for internal use, to retrieve special keys, like the
// last run timestamp.
func (boltDB *BoltDB) getSpecial(key string) string {
	value := make([]byte, 0)
	_ = boltDB.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(SPECIAL_BUCKET))
		value = bucket.Get([]byte(key))
		return nil
	})
	return string(value)
}
