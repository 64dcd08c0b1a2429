// Package logger configures slog for the CLI: a colorized text handler on
// stderr for interactive use, or a lumberjack-rotated file when a log
// directory is configured. It also names the rotating capture file that
// receives the managed child's stderr.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Options selects the log destination and rotation parameters.
type Options struct {
	Dir        string // when set, log to Dir/fifoctl.log instead of stderr
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Setup builds the logger and installs it as the slog default.
func Setup(opts Options) *slog.Logger {
	var lg *slog.Logger
	if opts.Dir != "" {
		lg = slog.New(slog.NewTextHandler(opts.rotatingWriter("fifoctl.log"), &slog.HandlerOptions{Level: opts.Level}))
	} else {
		lg = slog.New(NewColorTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.Level}))
	}
	slog.SetDefault(lg)
	return lg
}

// ChildStderrPath returns the capture file for the managed child's
// stderr, or empty when no log directory is configured. The child holds
// the file descriptor directly, so rotation does not apply to it.
func ChildStderrPath(dir string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "child.stderr.log")
}

func (o Options) rotatingWriter(name string) io.Writer {
	return &lj.Logger{
		Filename:   filepath.Join(o.Dir, name),
		MaxSize:    valOr(o.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(o.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(o.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   o.Compress,
	}
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
