// Package health computes a structured verdict over the pipe pair and the
// managed process. Checks are pure inspection with zero side effects and
// are safe to run concurrently with message exchange.
package health

import (
	"errors"
	"strings"

	"github.com/loykin/fifoctl/internal/inspect"
	"github.com/loykin/fifoctl/internal/pipe"
	"github.com/loykin/fifoctl/internal/registry"
)

// ErrNoRegisteredProcess is returned when no PID was given and no record
// exists to resolve one from.
var ErrNoRegisteredProcess = errors.New("no registered process")

// PipeState describes one pipe path.
type PipeState string

const (
	PipeExists  PipeState = "exists"
	PipeMissing PipeState = "missing"
)

// ProcessState describes the process table lookup. Zombies count as not
// running. A record pointing at a vanished PID is stale data, reported as
// not_running rather than failing the check.
type ProcessState string

const (
	ProcessRunning    ProcessState = "running"
	ProcessNotRunning ProcessState = "not_running"
	ProcessUnknown    ProcessState = "unknown"
)

// IdentityState is the outcome of the command-line identity comparison,
// which guards against PID reuse.
type IdentityState string

const (
	IdentityConfirmed     IdentityState = "confirmed"
	IdentityMismatch      IdentityState = "mismatch"
	IdentityUnknown       IdentityState = "unknown"
	IdentityNotApplicable IdentityState = "not_applicable"
)

// Overall is the aggregate verdict.
type Overall string

const (
	Healthy   Overall = "healthy"
	Degraded  Overall = "degraded"
	Unhealthy Overall = "unhealthy"
)

// PipesState holds both pipe verdicts.
type PipesState struct {
	Input  PipeState `json:"input"`
	Output PipeState `json:"output"`
}

// Verdict is computed fresh on every call and never persisted.
type Verdict struct {
	Pipes       PipesState    `json:"pipes"`
	PID         int           `json:"pid,omitempty"`
	Process     ProcessState  `json:"process"`
	CommandLine string        `json:"cmdline,omitempty"`
	Identity    IdentityState `json:"identity_confirmed"`
	Overall     Overall       `json:"overall"`
}

// Checker assembles verdicts from pipe state, the registry, and the
// process inspector.
type Checker struct {
	Pipes     pipe.Pair
	Registry  registry.File
	Inspector inspect.Inspector
	// ExpectIdentity, when set, overrides the recorded command as the
	// substring the live command line must contain.
	ExpectIdentity string
}

// Check produces a verdict for pid, or for the registered process when
// pid is zero. With neither it fails with ErrNoRegisteredProcess.
func (c Checker) Check(pid int) (Verdict, error) {
	v := Verdict{
		Process:  ProcessUnknown,
		Identity: IdentityNotApplicable,
		Overall:  Unhealthy,
	}
	in, out := c.Pipes.Exists()
	v.Pipes.Input = pipeState(in)
	v.Pipes.Output = pipeState(out)

	expected := c.ExpectIdentity
	var rec registry.Record
	haveRecord := false
	if r, err := c.Registry.Load(); err == nil {
		rec = r
		haveRecord = true
		if expected == "" {
			expected = rec.Command
		}
	} else if !errors.Is(err, registry.ErrNoRecord) {
		return v, err
	}

	if pid == 0 {
		if !haveRecord {
			return v, ErrNoRegisteredProcess
		}
		pid = rec.PID
	}
	v.PID = pid

	if c.Inspector.Exists(pid) {
		v.Process = ProcessRunning
		v.Identity = c.confirmIdentity(&v, pid, rec, haveRecord, expected)
	} else {
		v.Process = ProcessNotRunning
	}

	v.Overall = overall(v)
	return v, nil
}

// confirmIdentity compares the live command line (and, when recorded, the
// process start time) against what we believe we started.
func (c Checker) confirmIdentity(v *Verdict, pid int, rec registry.Record, haveRecord bool, expected string) IdentityState {
	if expected == "" {
		return IdentityNotApplicable
	}
	cmdline, ok := c.Inspector.CommandLine(pid)
	if !ok {
		return IdentityUnknown
	}
	v.CommandLine = cmdline
	if !strings.Contains(cmdline, expected) {
		return IdentityMismatch
	}
	if haveRecord && rec.PID == pid && rec.StartUnix > 0 {
		if cur := c.Inspector.StartUnix(pid); cur > 0 && cur != rec.StartUnix {
			return IdentityMismatch
		}
	}
	return IdentityConfirmed
}

func overall(v Verdict) Overall {
	if v.Pipes.Input != PipeExists || v.Pipes.Output != PipeExists {
		return Unhealthy
	}
	if v.Process != ProcessRunning {
		return Unhealthy
	}
	switch v.Identity {
	case IdentityConfirmed, IdentityNotApplicable:
		return Healthy
	case IdentityUnknown:
		return Degraded
	default: // mismatch: the PID no longer looks like our process
		return Unhealthy
	}
}

func pipeState(exists bool) PipeState {
	if exists {
		return PipeExists
	}
	return PipeMissing
}
