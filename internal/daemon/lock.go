// Package daemon implements the singleton PID-file lock described in
// SPEC_FULL §4.13 (the resource named "PID file" in spec.md §6 and
// covered by "Resource acquisition" in spec.md §5).
//
// Grounded on haasonsaas-nexus's internal/gateway/singleton_lock.go
// AcquireGatewayLock / isProcessAlive / isLockFileStale.
package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"
)

type lockPayload struct {
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"createdAt"`
	ConfigPath string   `json:"configPath"`
}

// Lock represents a held singleton lock. Release removes the PID file.
type Lock struct {
	path string
}

// Acquire writes a PID file at path, failing if a live process already
// holds it. A stale file (naming a pid that is no longer alive) is
// reclaimed silently. Per spec.md §6, failure to write is a warning,
// not fatal — Acquire only fails when a live conflicting process is
// detected.
func Acquire(path, configPath string) (*Lock, error) {
	if existing, err := readLockPayload(path); err == nil {
		if isProcessAlive(existing.PID) {
			return nil, fmt.Errorf("daemon: another broker instance is running (pid %d, lock %s)", existing.PID, path)
		}
	}

	payload := lockPayload{
		PID:        os.Getpid(),
		CreatedAt:  time.Now().UTC(),
		ConfigPath: configPath,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("daemon: marshal lock payload: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		// Best-effort per spec.md §6 PID file contract.
		slog.Warn("daemon: write PID file failed", "path", path, "error", err)
		return &Lock{path: path}, nil
	}

	return &Lock{path: path}, nil
}

func readLockPayload(path string) (lockPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lockPayload{}, err
	}
	var p lockPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return lockPayload{}, err
	}
	return p, nil
}

// isProcessAlive probes pid with signal 0, which delivers no signal
// but still reports ESRCH if the process does not exist.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}

// Release removes the PID file. Best-effort.
func (l *Lock) Release() {
	_ = os.Remove(l.path)
}
