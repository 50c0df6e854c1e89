package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"sort"
	"strings"
	"sync"
	"time"
)

// RecordSummary is what the end-of-run report says about one record.
type RecordSummary struct {
	Name                string
	Status              string
	PID                 string
	RecordURL           string
	EmbargoDate         string
	PostProcessLocation string
	CriticalErrors      []string
	NonCriticalErrors   []string
	DatastreamsCreated  []string
}

// BatchSummary collects the outcome of every record in one run of the
// batch loader. It is safe to add records from multiple goroutines.
type BatchSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Mode       string
	Records    []*RecordSummary
	// Unprocessed lists archives that were found but never started,
	// because a configuration error stopped the batch or because
	// they were ingested on an earlier run.
	Unprocessed []string
	mutex       sync.Mutex
}

func NewBatchSummary(mode string) *BatchSummary {
	return &BatchSummary{
		StartedAt:   time.Now().UTC(),
		Mode:        mode,
		Records:     make([]*RecordSummary, 0),
		Unprocessed: make([]string, 0),
	}
}

// AddRecord adds the outcome of record to the summary.
func (summary *BatchSummary) AddRecord(record *ETDRecord) {
	recordSummary := &RecordSummary{
		Name:                record.Name,
		Status:              record.Status,
		PID:                 record.PID,
		RecordURL:           record.RecordURL,
		PostProcessLocation: record.PostProcessLocation,
		CriticalErrors:      append([]string{}, record.CriticalErrors...),
		NonCriticalErrors:   append([]string{}, record.NonCriticalErrors...),
		DatastreamsCreated:  append([]string{}, record.DatastreamsCreated...),
	}
	if record.HasEmbargo {
		recordSummary.EmbargoDate = record.EmbargoDate
	}
	summary.mutex.Lock()
	summary.Records = append(summary.Records, recordSummary)
	summary.mutex.Unlock()
}

// AddUnprocessed notes an archive that was never started.
func (summary *BatchSummary) AddUnprocessed(archiveName string) {
	summary.mutex.Lock()
	summary.Unprocessed = append(summary.Unprocessed, archiveName)
	summary.mutex.Unlock()
}

func (summary *BatchSummary) Finish() {
	summary.mutex.Lock()
	summary.FinishedAt = time.Now().UTC()
	sort.Slice(summary.Records, func(i, j int) bool {
		return summary.Records[i].Name < summary.Records[j].Name
	})
	sort.Strings(summary.Unprocessed)
	summary.mutex.Unlock()
}

// CountByStatus returns the number of records with each status.
func (summary *BatchSummary) CountByStatus() map[string]int {
	summary.mutex.Lock()
	defer summary.mutex.Unlock()
	counts := make(map[string]int)
	for _, record := range summary.Records {
		counts[record.Status] += 1
	}
	return counts
}

// Report returns the human-readable end-of-run report.
func (summary *BatchSummary) Report() string {
	counts := summary.CountByStatus()
	summary.mutex.Lock()
	defer summary.mutex.Unlock()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "ETD load (%s) started %s, finished %s\n",
		summary.Mode,
		summary.StartedAt.Format(time.RFC3339),
		summary.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&buf, "Ingested: %d, Skipped: %d, Failed: %d\n",
		counts[constants.StatusIngested],
		counts[constants.StatusSkipped],
		counts[constants.StatusFailed])
	for _, record := range summary.Records {
		buf.WriteString(constants.Divider + "\n")
		fmt.Fprintf(&buf, "%s: %s\n", record.Name, record.Status)
		if record.PID != "" {
			fmt.Fprintf(&buf, "  PID: %s\n", record.PID)
		}
		if record.RecordURL != "" {
			fmt.Fprintf(&buf, "  URL: %s\n", record.RecordURL)
		}
		if record.EmbargoDate != "" {
			fmt.Fprintf(&buf, "  Embargo: %s\n", record.EmbargoDate)
		}
		if len(record.DatastreamsCreated) > 0 {
			fmt.Fprintf(&buf, "  Datastreams: %s\n", strings.Join(record.DatastreamsCreated, ", "))
		}
		if record.PostProcessLocation != "" {
			fmt.Fprintf(&buf, "  Moved to: %s\n", record.PostProcessLocation)
		}
		for _, msg := range record.CriticalErrors {
			fmt.Fprintf(&buf, "  ERROR: %s\n", msg)
		}
		for _, msg := range record.NonCriticalErrors {
			fmt.Fprintf(&buf, "  WARNING: %s\n", msg)
		}
	}
	if len(summary.Unprocessed) > 0 {
		buf.WriteString(constants.Divider + "\n")
		fmt.Fprintf(&buf, "Not processed: %s\n", strings.Join(summary.Unprocessed, ", "))
	}
	return buf.String()
}

func (summary *BatchSummary) ToJson() (string, error) {
	summary.mutex.Lock()
	defer summary.mutex.Unlock()
	bytes, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
