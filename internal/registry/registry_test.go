package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func tempFile(t *testing.T) File {
	t.Helper()
	return File{Path: filepath.Join(t.TempDir(), DefaultFileName)}
}

func TestLoadMissingYieldsErrNoRecord(t *testing.T) {
	f := tempFile(t)
	_, err := f.Load()
	if !errors.Is(err, ErrNoRecord) {
		t.Fatalf("want ErrNoRecord, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := tempFile(t)
	want := Record{
		PID:        4242,
		Command:    "cat",
		InputPipe:  "input_pipe",
		OutputPipe: "output_pipe",
		StartedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		StartUnix:  1748779200,
	}
	if err := f.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	f := tempFile(t)
	if err := f.Save(Record{PID: 1, Command: "cat"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := f.Save(Record{PID: 2, Command: "cat"}); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(f.Path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
	rec, err := f.Load()
	if err != nil || rec.PID != 2 {
		t.Fatalf("replace did not take effect: %+v %v", rec, err)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	f := tempFile(t)
	if err := os.WriteFile(f.Path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := f.Load(); err == nil {
		t.Fatal("expected error for corrupt record")
	}
	if err := os.WriteFile(f.Path, []byte(`{"pid": 0}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := f.Load(); err == nil {
		t.Fatal("expected error for non-positive pid")
	}
}

func TestRemoveReportsWhetherFileExisted(t *testing.T) {
	f := tempFile(t)
	removed, err := f.Remove()
	if err != nil || removed {
		t.Fatalf("Remove of absent file: removed=%v err=%v", removed, err)
	}
	if err := f.Save(Record{PID: 7, Command: "cat"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	removed, err = f.Remove()
	if err != nil || !removed {
		t.Fatalf("Remove: removed=%v err=%v", removed, err)
	}
	removed, err = f.Remove()
	if err != nil || removed {
		t.Fatalf("second Remove: removed=%v err=%v", removed, err)
	}
}
