// Package registry persists metadata about the single managed process.
// The record file is the source of truth for "which process is ours"
// between CLI invocations; its absence means nothing is registered.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultFileName is the record file name, kept alongside the pipes.
const DefaultFileName = ".fifoctl_process.json"

// ErrNoRecord is returned by Load when no record file exists.
var ErrNoRecord = errors.New("no managed process record")

// Record describes the currently managed process.
// StartUnix is the OS-reported process start time in Unix seconds; it is
// compared against the live process table to detect PID reuse.
type Record struct {
	PID        int       `json:"pid"`
	Command    string    `json:"command"`
	InputPipe  string    `json:"input_pipe"`
	OutputPipe string    `json:"output_pipe"`
	StartedAt  time.Time `json:"started_at"`
	StartUnix  int64     `json:"start_unix,omitempty"`
}

// File is a registry backed by a single JSON file. Updates go through an
// atomic replace (write sidecar, rename) so a concurrent reader never
// observes a half-written record. Concurrent writers racing on the file
// are an accepted risk for a single-operator tool; there is no lock.
type File struct {
	Path string
}

// Load reads the current record. A missing file yields ErrNoRecord.
func (f File) Load() (Record, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, ErrNoRecord
		}
		return Record{}, fmt.Errorf("read record %s: %w", f.Path, err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, fmt.Errorf("parse record %s: %w", f.Path, err)
	}
	if rec.PID <= 0 {
		return Record{}, fmt.Errorf("record %s: invalid pid %d", f.Path, rec.PID)
	}
	return rec, nil
}

// Save replaces the record atomically.
func (f File) Save(rec Record) error {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace record: %w", err)
	}
	return nil
}

// Remove deletes the record file. It reports whether a file was actually
// removed; a missing file is a trivial success.
func (f File) Remove() (bool, error) {
	err := os.Remove(f.Path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("remove record %s: %w", f.Path, err)
}
