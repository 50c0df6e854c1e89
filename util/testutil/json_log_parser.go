package testutil

import (
	"bufio"
	"encoding/json"
	"fmt"
	"github.com/etdloader/etdloader/models"
	"io"
	"os"
	"strings"
)

// FindRecordInLog returns the last ETDRecord named recordName in the
// JSON log at pathToLogFile. The loader writes one record per line
// each time a record finishes, so a record that was processed more
// than once appears more than once.
func FindRecordInLog(pathToLogFile, recordName string) (*models.ETDRecord, error) {
	file, err := os.Open(pathToLogFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	jsonString := findJsonString(file, recordName)
	if len(jsonString) == 0 {
		return nil, fmt.Errorf("Record %s not found in %s", recordName, pathToLogFile)
	}
	record := &models.ETDRecord{}
	err = json.Unmarshal([]byte(jsonString), record)
	return record, err
}

func findJsonString(file io.Reader, recordName string) string {
	// Cheap filter so we don't unmarshal every line.
	needle := fmt.Sprintf(`"Name":"%s"`, recordName)
	lastMatch := ""
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.Contains(line, needle) {
			continue
		}
		header := struct{ Name string }{}
		if json.Unmarshal([]byte(line), &header) == nil && header.Name == recordName {
			lastMatch = line
		}
	}
	return lastMatch
}
