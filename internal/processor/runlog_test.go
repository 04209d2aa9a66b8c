package processor

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendRunLog(t *testing.T) {
	dir := t.TempDir()

	first := &RunRecord{Kind: "single", RunID: "r1", Timestamp: "20260301_100000", Success: true}
	if err := appendRunLog(dir, first.Timestamp, first); err != nil {
		t.Fatalf("first append: %v", err)
	}

	second := &BatchRecord{Kind: "batch", RunID: "r2", Timestamp: "20260301_110000", Success: false}
	if err := appendRunLog(dir, second.Timestamp, second); err != nil {
		t.Fatalf("second append: %v", err)
	}

	runLog, err := loadRunLog(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(runLog.Runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runLog.Runs))
	}
	if runLog.Created != "20260301_100000" {
		t.Fatalf("got created %q", runLog.Created)
	}
	if runLog.LastUpdated != "20260301_110000" {
		t.Fatalf("got last_updated %q", runLog.LastUpdated)
	}

	var one RunRecord
	if err := json.Unmarshal(runLog.Runs[0], &one); err != nil {
		t.Fatalf("decode first entry: %v", err)
	}
	if one.RunID != "r1" || !one.Success {
		t.Fatalf("bad first entry: %+v", one)
	}

	var two BatchRecord
	if err := json.Unmarshal(runLog.Runs[1], &two); err != nil {
		t.Fatalf("decode second entry: %v", err)
	}
	if two.RunID != "r2" || two.Kind != "batch" {
		t.Fatalf("bad second entry: %+v", two)
	}
}

func TestLoadRunLogMissing(t *testing.T) {
	runLog, err := loadRunLog(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if runLog.Runs == nil || len(runLog.Runs) != 0 {
		t.Fatalf("got %+v, want empty log", runLog)
	}
}

func TestLoadRunLogCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LogFileName), []byte("{oops"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := loadRunLog(dir)
	if !errors.Is(err, ErrCorruptLog) {
		t.Fatalf("got %v, want ErrCorruptLog", err)
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	dir := t.TempDir()

	if err := writeJSONAtomic(dir, "out.json", map[string]int{"count": 3}); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"count\": 3") {
		t.Fatalf("not indented:\n%s", data)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Fatal("missing trailing newline")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp file left behind, dir has %d entries", len(entries))
	}
}

func TestWriteJSONAtomicReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := writeJSONAtomic(dir, "out.json", map[string]string{"state": "new"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"state": "new"`) {
		t.Fatalf("old content survived:\n%s", data)
	}
}
