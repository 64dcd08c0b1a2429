//go:build !windows

package cleaner

import (
	"errors"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/loykin/fifoctl/internal/inspect"
	"github.com/loykin/fifoctl/internal/pipe"
	"github.com/loykin/fifoctl/internal/registry"
)

func newCleaner(t *testing.T) Cleaner {
	t.Helper()
	dir := t.TempDir()
	p := pipe.DefaultPair(dir)
	if err := p.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	return Cleaner{
		Pipes:     p,
		Registry:  registry.File{Path: filepath.Join(dir, registry.DefaultFileName)},
		Inspector: inspect.OS{},
		Grace:     time.Second,
	}
}

// startSleeper launches a detached sleep in its own session, mirroring
// how the launcher starts managed processes.
func startSleeper(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("sleep", "30")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleeper: %v", err)
	}
	pid := cmd.Process.Pid
	go func() { _ = cmd.Wait() }()
	t.Cleanup(func() { _ = syscall.Kill(-pid, syscall.SIGKILL) })
	return pid
}

func TestCleanupNothingRegisteredSucceedsTwice(t *testing.T) {
	c := newCleaner(t)
	if _, err := c.Pipes.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	for i := 0; i < 2; i++ {
		rep, err := c.Cleanup(0)
		if err != nil {
			t.Fatalf("Cleanup #%d: %v", i+1, err)
		}
		if rep.ProcessFound || rep.ProcessTerminated || len(rep.PipesRemoved) != 0 || rep.RecordRemoved {
			t.Fatalf("Cleanup #%d reported work on nothing: %+v", i+1, rep)
		}
	}
}

func TestCleanupTerminatesRegisteredProcess(t *testing.T) {
	c := newCleaner(t)
	pid := startSleeper(t)
	if err := c.Registry.Save(registry.Record{PID: pid, Command: "sleep 30", StartedAt: time.Now()}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rep, err := c.Cleanup(0)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if !rep.ProcessFound || !rep.ProcessTerminated {
		t.Fatalf("process not terminated: %+v", rep)
	}
	if len(rep.PipesRemoved) != 2 || !rep.RecordRemoved {
		t.Fatalf("filesystem cleanup incomplete: %+v", rep)
	}
	if c.Inspector.Exists(pid) {
		t.Fatalf("pid %d still alive after cleanup", pid)
	}

	// Second run finds nothing left.
	rep, err = c.Cleanup(0)
	if err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
	if rep.ProcessFound || len(rep.PipesRemoved) != 0 || rep.RecordRemoved {
		t.Fatalf("second Cleanup reported leftover work: %+v", rep)
	}
}

func TestCleanupWithExplicitPID(t *testing.T) {
	c := newCleaner(t)
	pid := startSleeper(t)

	rep, err := c.Cleanup(pid)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if !rep.ProcessTerminated {
		t.Fatalf("explicit pid not terminated: %+v", rep)
	}
}

// immortalInspector claims the process never dies, driving the cleaner
// through SIGTERM, escalation, and the TerminationFailed path. The pid
// is not a real process, so the signals land on nothing.
type immortalInspector struct{}

func (immortalInspector) Exists(int) bool                { return true }
func (immortalInspector) CommandLine(int) (string, bool) { return "", false }
func (immortalInspector) StartUnix(int) int64            { return 0 }

func TestTerminationFailureStillRemovesPipesAndRecord(t *testing.T) {
	c := newCleaner(t)
	c.Inspector = immortalInspector{}
	c.Grace = 100 * time.Millisecond
	if err := c.Registry.Save(registry.Record{PID: 1 << 28, Command: "immortal", StartedAt: time.Now()}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rep, err := c.Cleanup(0)
	if !errors.Is(err, ErrTerminationFailed) {
		t.Fatalf("want ErrTerminationFailed, got %v", err)
	}
	if rep.ProcessTerminated {
		t.Fatalf("termination reported as success: %+v", rep)
	}
	// Best-effort cleanup must not abandon the filesystem.
	if len(rep.PipesRemoved) != 2 || !rep.RecordRemoved {
		t.Fatalf("pipes/record not removed after failed termination: %+v", rep)
	}
}
