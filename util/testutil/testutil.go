package testutil

import (
	"encoding/json"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/util/fileutil"
)

// Loads an ETDRecord fixture (a JSON file) from the testdata
// directory for testing.
func LoadRecordFixture(filename string) (*models.ETDRecord, error) {
	data, err := fileutil.LoadRelativeFile(filename)
	if err != nil {
		return nil, err
	}
	record := &models.ETDRecord{}
	err = json.Unmarshal(data, record)
	if err != nil {
		return nil, err
	}
	return record, nil
}
