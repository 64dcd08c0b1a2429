// Package launcher spawns the managed command detached from the CLI
// lifetime, with stdin/stdout bound to the pipe pair through shell
// redirection, and records the result in the registry.
package launcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/loykin/fifoctl/internal/inspect"
	"github.com/loykin/fifoctl/internal/pipe"
	"github.com/loykin/fifoctl/internal/registry"
)

var (
	// ErrLaunchFailed wraps shell/exec errors, including commands that
	// die before the launcher can register them.
	ErrLaunchFailed = errors.New("launch failed")
	// ErrAlreadyManaged is returned when a registered process is still
	// alive; fifoctl manages one process at a time and rejects a second
	// start. Run cleanup first. A stale record (dead or reused PID) is
	// superseded instead.
	ErrAlreadyManaged = errors.New("a managed process is already running")
)

// startupSettle is how long the child may take to appear in the process
// table before the launcher gives up on verifying it.
const startupSettle = 500 * time.Millisecond

// Launcher starts one command bound to the pipe pair.
type Launcher struct {
	Pipes     pipe.Pair
	Registry  registry.File
	Inspector inspect.Inspector
	// StderrPath, when set, receives the child's stderr (append mode).
	StderrPath string
}

// Start launches command in a new session so it keeps running after this
// invocation exits and holds no controlling terminal. The shell performs
// the pipe redirection, which means the child blocks opening the input
// FIFO until the first writer appears; that is the intended idle state.
//
// On success a record exists and the OS reports the PID as present. On
// any failure no record is written (a pre-existing stale record is left
// untouched). The launcher does not provision pipes; setup must have run.
func (l Launcher) Start(command string) (registry.Record, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return registry.Record{}, errors.New("empty command")
	}
	if !l.Pipes.Ready() {
		return registry.Record{}, fmt.Errorf("%w: run setup first", pipe.ErrNotReady)
	}
	if err := l.checkExisting(); err != nil {
		return registry.Record{}, err
	}

	script := fmt.Sprintf("%s < %s > %s", command, shellQuote(l.Pipes.Input), shellQuote(l.Pipes.Output))
	cmd := shellCommand(script)
	detach(cmd)
	cmd.Stdin = nil
	cmd.Stdout = nil
	if l.StderrPath != "" {
		f, err := os.OpenFile(l.StderrPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return registry.Record{}, fmt.Errorf("open stderr capture %s: %w", l.StderrPath, err)
		}
		defer func() { _ = f.Close() }()
		cmd.Stderr = f
	}

	if err := cmd.Start(); err != nil {
		return registry.Record{}, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
	}
	pid := cmd.Process.Pid

	if !l.waitVisible(pid) {
		// Child died immediately; reap it so we do not leave a zombie.
		_ = cmd.Wait()
		return registry.Record{}, fmt.Errorf("%w: command exited immediately: %s", ErrLaunchFailed, command)
	}

	rec := registry.Record{
		PID:        pid,
		Command:    command,
		InputPipe:  l.Pipes.Input,
		OutputPipe: l.Pipes.Output,
		StartedAt:  time.Now().UTC(),
		StartUnix:  l.Inspector.StartUnix(pid),
	}
	if err := l.Registry.Save(rec); err != nil {
		// Reject partial success: without a record the process would be
		// unreachable for health/cleanup, so take it down again.
		killProcessGroup(pid)
		_ = cmd.Wait()
		return registry.Record{}, fmt.Errorf("record launch: %w", err)
	}
	// Detached child; init reaps it after we exit.
	_ = cmd.Process.Release()

	slog.Info("started managed process", "pid", pid, "command", command)
	return rec, nil
}

// checkExisting enforces the single-process policy: a live registered
// process rejects the start, a stale record is superseded.
func (l Launcher) checkExisting() error {
	rec, err := l.Registry.Load()
	if err != nil {
		if errors.Is(err, registry.ErrNoRecord) {
			return nil
		}
		// An unreadable record is treated as stale rather than blocking
		// every future start.
		slog.Warn("ignoring unreadable process record", "error", err)
		return nil
	}
	if l.recordAlive(rec) {
		return fmt.Errorf("%w: pid %d (%s)", ErrAlreadyManaged, rec.PID, rec.Command)
	}
	slog.Warn("superseding stale process record", "pid", rec.PID, "command", rec.Command)
	return nil
}

// recordAlive reports whether the record still points at the process we
// started, using the start-time fingerprint to rule out PID reuse.
func (l Launcher) recordAlive(rec registry.Record) bool {
	if !l.Inspector.Exists(rec.PID) {
		return false
	}
	if rec.StartUnix > 0 {
		if cur := l.Inspector.StartUnix(rec.PID); cur > 0 && cur != rec.StartUnix {
			return false
		}
	}
	return true
}

// waitVisible polls the process table briefly after Start. A fast-failing
// command shows up as an unreaped zombie here, which Exists rejects.
func (l Launcher) waitVisible(pid int) bool {
	deadline := time.Now().Add(startupSettle)
	for {
		if l.Inspector.Exists(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// shellQuote single-quotes s for safe interpolation into a shell script.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
