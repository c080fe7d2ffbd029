package daemon

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireThenRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broker.pid")

	lock, err := Acquire(path, "/cfg.yaml")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected lock file to exist: %v", err)
	}

	lock.Release()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected lock file to be removed after Release")
	}
}

func TestAcquireReclaimsStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broker.pid")

	data, _ := json.Marshal(map[string]any{"pid": 999999999, "configPath": "/old.yaml"})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write stale lock: %v", err)
	}

	lock, err := Acquire(path, "/cfg.yaml")
	if err != nil {
		t.Fatalf("Acquire should reclaim a stale lock, got error: %v", err)
	}
	lock.Release()
}

func TestAcquireRejectsLiveConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broker.pid")

	data, _ := json.Marshal(map[string]any{"pid": os.Getpid(), "configPath": "/old.yaml"})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write live lock: %v", err)
	}

	if _, err := Acquire(path, "/cfg.yaml"); err == nil {
		t.Errorf("expected Acquire to reject a lock naming this live process")
	}
}
