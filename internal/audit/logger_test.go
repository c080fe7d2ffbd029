package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendWritesJSONLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := New(path, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Append(Record{Action: ActionRead, Result: ResultAllowed, Container: "pub"})

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatalf("expected at least one line")
	}

	var rec Record
	if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Action != ActionRead || rec.Result != ResultAllowed || rec.Container != "pub" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Timestamp.IsZero() {
		t.Errorf("expected a timestamp to be stamped")
	}
	if rec.ID == "" {
		t.Errorf("expected an id to be stamped")
	}
}

func TestAppendPreservesExplicitTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	l, err := New(path, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Append(Record{Action: ActionDaemonStart, Timestamp: ts})
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var rec Record
	lines := splitLines(data)
	if len(lines) == 0 {
		t.Fatalf("expected at least one line")
	}
	if err := json.Unmarshal(lines[0], &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !rec.Timestamp.Equal(ts) {
		t.Errorf("got timestamp %v, want %v", rec.Timestamp, ts)
	}
}

func splitLines(data []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				out = append(out, data[start:i])
			}
			start = i + 1
		}
	}
	return out
}
