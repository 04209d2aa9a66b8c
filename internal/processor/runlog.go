package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LogFileName is the accumulating run log kept by shared placement.
const LogFileName = "processing_log.json"

// Per-run documents written by timestamped placement.
const (
	MetadataFileName      = "metadata.json"
	BatchMetadataFileName = "batch_metadata.json"
)

// ErrCorruptLog marks an existing run log that cannot be parsed. A log in
// that state is never overwritten.
var ErrCorruptLog = errors.New("run log is not valid JSON")

// RunLog accumulates run records in a shared folder; last_updated always
// carries the newest run's timestamp.
type RunLog struct {
	Created     string            `json:"created"`
	LastUpdated string            `json:"last_updated"`
	Runs        []json.RawMessage `json:"runs"`
}

func loadRunLog(dir string) (*RunLog, error) {
	path := filepath.Join(dir, LogFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &RunLog{Runs: []json.RawMessage{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read run log: %w", err)
	}

	runLog := &RunLog{}
	if err := json.Unmarshal(data, runLog); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptLog, path, err)
	}
	if runLog.Runs == nil {
		runLog.Runs = []json.RawMessage{}
	}
	return runLog, nil
}

func appendRunLog(dir, ts string, record any) error {
	runLog, err := loadRunLog(dir)
	if err != nil {
		return err
	}

	entry, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode run record: %w", err)
	}

	runLog.Runs = append(runLog.Runs, entry)
	if runLog.Created == "" {
		runLog.Created = ts
	}
	runLog.LastUpdated = ts

	return writeJSONAtomic(dir, LogFileName, runLog)
}

func kindForLogError(err error) FailureKind {
	if errors.Is(err, ErrCorruptLog) {
		return FailCorruptLog
	}
	return FailProcessing
}

func writeJSONAtomic(dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	data = append(data, '\n')

	tmpFile, err := os.CreateTemp(dir, ".rmbg-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return replaceFile(tmpFile.Name(), filepath.Join(dir, name))
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
