package callback

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestScanOnceResolvesPendingFile(t *testing.T) {
	dir := t.TempDir()
	r := newFakeResolver()
	r.pending["0123456789abcdef"] = true

	p := NewFSPoller(dir, r, nil)

	writeDropFile(t, dir, "0123456789abcdef.json", true)

	p.scanOnce()

	if approved, ok := r.resolved["0123456789abcdef"]; !ok || !approved {
		t.Errorf("expected id resolved approved, got (%v, %v)", approved, ok)
	}

	if _, err := os.Stat(filepath.Join(dir, "0123456789abcdef.json")); !os.IsNotExist(err) {
		t.Errorf("expected drop file to be unlinked after resolution")
	}
}

func TestScanOnceLeavesUnknownIDInPlace(t *testing.T) {
	dir := t.TempDir()
	r := newFakeResolver()

	p := NewFSPoller(dir, r, nil)
	writeDropFile(t, dir, "fedcba9876543210.json", true)

	p.scanOnce()

	if _, err := os.Stat(filepath.Join(dir, "fedcba9876543210.json")); err != nil {
		t.Errorf("expected unknown-id file to remain, got error: %v", err)
	}
}

func TestScanOnceLeavesMalformedFileInPlace(t *testing.T) {
	dir := t.TempDir()
	r := newFakeResolver()
	r.pending["0123456789abcdef"] = true

	p := NewFSPoller(dir, r, nil)
	path := filepath.Join(dir, "0123456789abcdef.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	p.scanOnce()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected malformed file to remain, got error: %v", err)
	}
	if _, ok := r.resolved["0123456789abcdef"]; ok {
		t.Errorf("malformed file must not resolve the pending request")
	}
}

func writeDropFile(t *testing.T, dir, name string, approved bool) {
	t.Helper()
	data, err := json.Marshal(map[string]bool{"approved": approved})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}
