// Package fifoctl manages bidirectional communication with an arbitrary
// child process through a pair of named pipes. It provisions the pipes,
// starts the command detached with stdin/stdout bound to them, exchanges
// messages with bounded waiting, checks liveness and identity, and tears
// everything down idempotently. All state lives on disk between calls;
// there is no resident daemon.
package fifoctl

import (
	"context"
	"log/slog"
	"time"

	"github.com/loykin/fifoctl/internal/cleaner"
	cfg "github.com/loykin/fifoctl/internal/config"
	"github.com/loykin/fifoctl/internal/health"
	"github.com/loykin/fifoctl/internal/history"
	"github.com/loykin/fifoctl/internal/inspect"
	"github.com/loykin/fifoctl/internal/launcher"
	"github.com/loykin/fifoctl/internal/logger"
	"github.com/loykin/fifoctl/internal/messenger"
	"github.com/loykin/fifoctl/internal/pipe"
	"github.com/loykin/fifoctl/internal/registry"
)

// Re-export core types for external consumers. These are aliases, so
// conversions are zero-cost.

type Config = cfg.Config

type Record = registry.Record

type Verdict = health.Verdict

type CleanupReport = cleaner.Report

type HistoryEntry = history.Entry

// Stable error kinds. Scripts can branch on these via errors.Is (the CLI
// maps each to a distinct exit code).
var (
	ErrPathConflict        = pipe.ErrPathConflict
	ErrPipesNotReady       = pipe.ErrNotReady
	ErrLaunchFailed        = launcher.ErrLaunchFailed
	ErrAlreadyManaged      = launcher.ErrAlreadyManaged
	ErrNoReader            = messenger.ErrNoReader
	ErrNoData              = messenger.ErrNoData
	ErrNoRegisteredProcess = health.ErrNoRegisteredProcess
	ErrTerminationFailed   = cleaner.ErrTerminationFailed
)

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config { return cfg.Default() }

// LoadConfig reads a TOML configuration file; empty path yields defaults.
func LoadConfig(path string) (Config, error) { return cfg.Load(path) }

// Handler bundles the pipe pair, the registry, and the process inspector
// behind the operation surface. Each method is a complete, independent
// operation: it loads state from disk, acts, and returns.
type Handler struct {
	config    Config
	pipes     pipe.Pair
	reg       registry.File
	inspector inspect.Inspector
	hist      *history.Log
}

// New builds a Handler from cfg. The history database, when configured,
// is opened lazily best-effort: an unopenable history never blocks the
// core operations.
func New(c Config) *Handler {
	h := &Handler{
		config:    c,
		pipes:     c.Pipes(),
		reg:       c.Registry(),
		inspector: inspect.OS{},
	}
	if c.History.Path != "" {
		l, err := history.Open(c.History.Path)
		if err != nil {
			slog.Warn("operation history disabled", "error", err)
		} else {
			h.hist = l
		}
	}
	return h
}

// Close releases the history database, if open.
func (h *Handler) Close() error {
	if h.hist != nil {
		return h.hist.Close()
	}
	return nil
}

// Pipes returns the resolved pipe pair.
func (h *Handler) Pipes() pipe.Pair { return h.pipes }

// Setup provisions both pipes. Idempotent; a path occupied by a non-FIFO
// fails with ErrPathConflict.
func (h *Handler) Setup() error {
	err := h.pipes.Ensure()
	h.record("setup", "", 0, err)
	return err
}

// Start launches command bound to the pipes, falling back to the
// configured default command when empty. See launcher.Launcher.Start for
// the single-process policy and guarantees.
func (h *Handler) Start(command string) (Record, error) {
	if command == "" {
		command = h.config.DefaultCommand
	}
	l := launcher.Launcher{
		Pipes:      h.pipes,
		Registry:   h.reg,
		Inspector:  h.inspector,
		StderrPath: logger.ChildStderrPath(h.config.Log.Dir),
	}
	rec, err := l.Start(command)
	h.record("start", command, rec.PID, err)
	return rec, err
}

// Write delivers one message into the input pipe, waiting a bounded time
// for a reader.
func (h *Handler) Write(message string) error {
	m := messenger.New(h.pipes)
	m.WriteTimeout = h.config.WriteTimeout
	err := m.Write(message)
	h.record("write", message, 0, err)
	return err
}

// Read collects output-pipe bytes under a hard deadline; zero timeout
// uses the configured default.
func (h *Handler) Read(timeout time.Duration) (string, error) {
	m := messenger.New(h.pipes)
	m.ReadTimeout = h.config.ReadTimeout
	out, err := m.Read(timeout)
	h.record("read", "", 0, err)
	return out, err
}

// Health inspects pipes, process table, and identity for pid (zero means
// the registered process).
func (h *Handler) Health(pid int) (Verdict, error) {
	c := health.Checker{
		Pipes:          h.pipes,
		Registry:       h.reg,
		Inspector:      h.inspector,
		ExpectIdentity: h.config.ExpectIdentity,
	}
	return c.Check(pid)
}

// Cleanup terminates the managed process (graceful, then forced) and
// removes pipes and record, tolerating anything already gone.
func (h *Handler) Cleanup(pid int) (CleanupReport, error) {
	c := cleaner.Cleaner{
		Pipes:     h.pipes,
		Registry:  h.reg,
		Inspector: h.inspector,
		Grace:     h.config.GracePeriod,
	}
	rep, err := c.Cleanup(pid)
	h.record("cleanup", "", rep.PID, err)
	return rep, err
}

// History returns the n most recent recorded operations, newest first.
func (h *Handler) History(ctx context.Context, n int) ([]HistoryEntry, error) {
	if h.hist == nil {
		return nil, nil
	}
	return h.hist.Recent(ctx, n)
}

// record appends to the operation history; history failures are logged,
// never propagated.
func (h *Handler) record(op, detail string, pid int, opErr error) {
	if h.hist == nil {
		return
	}
	e := history.Entry{Op: op, Detail: detail, PID: pid, OK: opErr == nil}
	if opErr != nil {
		e.Error = opErr.Error()
	}
	if err := h.hist.Append(context.Background(), e); err != nil {
		slog.Warn("append operation history", "op", op, "error", err)
	}
}
