// Package cleaner tears down the managed process, the pipe pair, and the
// registry record. Every step tolerates the resource already being gone;
// a failed termination never abandons the filesystem cleanup.
package cleaner

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loykin/fifoctl/internal/inspect"
	"github.com/loykin/fifoctl/internal/pipe"
	"github.com/loykin/fifoctl/internal/registry"
)

// ErrTerminationFailed means the process survived SIGKILL escalation.
// Pipe and record removal still ran; the report says what succeeded.
var ErrTerminationFailed = errors.New("process would not terminate")

// DefaultGracePeriod is how long a process gets to exit after the
// graceful signal before escalation.
const DefaultGracePeriod = 3 * time.Second

// killSettle bounds the post-SIGKILL wait for the process to vanish.
const killSettle = 500 * time.Millisecond

// Report states exactly which resources cleanup touched. Partial cleanup
// is never conflated with full success.
type Report struct {
	PID               int      `json:"pid,omitempty"`
	ProcessFound      bool     `json:"process_found"`
	ProcessTerminated bool     `json:"process_terminated"`
	PipesRemoved      []string `json:"pipes_removed"`
	RecordRemoved     bool     `json:"record_removed"`
}

// Cleaner tears the pipe/process arrangement down.
type Cleaner struct {
	Pipes     pipe.Pair
	Registry  registry.File
	Inspector inspect.Inspector
	Grace     time.Duration
}

// Cleanup terminates pid (resolved from the record when zero), removes
// the pipes, and removes the record. With no PID and no record the
// process step is skipped and the call still succeeds: calling cleanup
// twice in a row is expected usage. The first error is returned together
// with the report of everything that did succeed.
func (c Cleaner) Cleanup(pid int) (Report, error) {
	var rep Report
	var firstErr error

	if pid == 0 {
		if rec, err := c.Registry.Load(); err == nil {
			pid = rec.PID
		}
	}
	rep.PID = pid

	if pid > 0 && c.Inspector.Exists(pid) {
		rep.ProcessFound = true
		if c.terminate(pid) {
			rep.ProcessTerminated = true
			slog.Info("terminated managed process", "pid", pid)
		} else {
			firstErr = fmt.Errorf("%w: pid %d", ErrTerminationFailed, pid)
			slog.Error("process survived escalation", "pid", pid)
		}
	}

	removed, err := c.Pipes.Remove()
	rep.PipesRemoved = removed
	if err != nil && firstErr == nil {
		firstErr = err
	}

	recRemoved, err := c.Registry.Remove()
	rep.RecordRemoved = recRemoved
	if err != nil && firstErr == nil {
		firstErr = err
	}

	return rep, firstErr
}

// terminate asks the process group nicely, waits out the grace period,
// then escalates once to SIGKILL. Returns true when the process is gone.
func (c Cleaner) terminate(pid int) bool {
	grace := c.Grace
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	signalGroup(pid, false)
	if c.waitGone(pid, grace) {
		return true
	}
	slog.Warn("escalating to forced termination", "pid", pid)
	signalGroup(pid, true)
	return c.waitGone(pid, killSettle)
}

func (c Cleaner) waitGone(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !c.Inspector.Exists(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Millisecond)
	}
}
