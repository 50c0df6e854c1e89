package models_test

import (
	"encoding/json"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"sync"
	"testing"
)

func makeRecord(name, status string) *models.ETDRecord {
	record := models.NewETDRecord(name+".zip", "/tmp/"+name)
	record.Status = status
	return record
}

func TestBatchSummaryAddRecord(t *testing.T) {
	summary := models.NewBatchSummary(constants.ModeDryRun)
	ingested := makeRecord("etdadmin_upload_2", constants.StatusIngested)
	ingested.PID = "etd:2"
	ingested.HasEmbargo = true
	ingested.EmbargoDate = "2030-01-01T00:00:00Z"
	ingested.AddDatastream(constants.DsMODS)
	summary.AddRecord(ingested)

	failed := makeRecord("etdadmin_upload_1", constants.StatusScanned)
	failed.AddCriticalError(constants.StepExtract, "Cannot open archive")
	summary.AddRecord(failed)
	summary.AddRecord(makeRecord("etdadmin_upload_3", constants.StatusSkipped))
	summary.AddUnprocessed("etdadmin_upload_4.zip")
	summary.Finish()

	require.Equal(t, 3, len(summary.Records))
	assert.Equal(t, "etdadmin_upload_1", summary.Records[0].Name)
	assert.Equal(t, "2030-01-01T00:00:00Z", summary.Records[1].EmbargoDate)
	assert.Equal(t, "", summary.Records[2].EmbargoDate)

	counts := summary.CountByStatus()
	assert.Equal(t, 1, counts[constants.StatusIngested])
	assert.Equal(t, 1, counts[constants.StatusFailed])
	assert.Equal(t, 1, counts[constants.StatusSkipped])

	report := summary.Report()
	assert.True(t, strings.Contains(report, "Ingested: 1, Skipped: 1, Failed: 1"))
	assert.True(t, strings.Contains(report, "Embargo: 2030-01-01T00:00:00Z"))
	assert.True(t, strings.Contains(report, "ERROR: [critical] extract: Cannot open archive"))
	assert.True(t, strings.Contains(report, "Not processed: etdadmin_upload_4.zip"))
}

func TestBatchSummaryRecordsAreCopies(t *testing.T) {
	summary := models.NewBatchSummary(constants.ModeProduction)
	record := makeRecord("etdadmin_upload_1", constants.StatusIngested)
	record.AddDatastream(constants.DsMODS)
	summary.AddRecord(record)
	record.AddDatastream(constants.DsPDF)
	assert.Equal(t, 1, len(summary.Records[0].DatastreamsCreated))
}

func TestBatchSummaryConcurrentAdds(t *testing.T) {
	summary := models.NewBatchSummary(constants.ModeProduction)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary.AddRecord(makeRecord("etdadmin_upload", constants.StatusIngested))
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, summary.CountByStatus()[constants.StatusIngested])
}

func TestBatchSummaryToJson(t *testing.T) {
	summary := models.NewBatchSummary(constants.ModeProduction)
	summary.AddRecord(makeRecord("etdadmin_upload_1", constants.StatusSkipped))
	summary.Finish()
	data, err := summary.ToJson()
	require.Nil(t, err)
	decoded := make(map[string]interface{})
	require.Nil(t, json.Unmarshal([]byte(data), &decoded))
	assert.Equal(t, constants.ModeProduction, decoded["Mode"])
	assert.Equal(t, 1, len(decoded["Records"].([]interface{})))
}
