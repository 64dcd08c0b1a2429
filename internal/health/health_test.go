package health

import (
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/loykin/fifoctl/internal/pipe"
	"github.com/loykin/fifoctl/internal/registry"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("FIFO tests require a Unix-like system")
	}
}

// fakeInspector scripts process-table answers so verdicts can be tested
// without real PID churn.
type fakeInspector struct {
	exists    map[int]bool
	cmdlines  map[int]string
	startUnix map[int]int64
}

func (f fakeInspector) Exists(pid int) bool { return f.exists[pid] }

func (f fakeInspector) CommandLine(pid int) (string, bool) {
	s, ok := f.cmdlines[pid]
	return s, ok
}

func (f fakeInspector) StartUnix(pid int) int64 { return f.startUnix[pid] }

func newChecker(t *testing.T, ins fakeInspector) Checker {
	t.Helper()
	requireUnix(t)
	dir := t.TempDir()
	p := pipe.DefaultPair(dir)
	if err := p.Ensure(); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	return Checker{
		Pipes:     p,
		Registry:  registry.File{Path: filepath.Join(dir, registry.DefaultFileName)},
		Inspector: ins,
	}
}

func saveRecord(t *testing.T, c Checker, rec registry.Record) {
	t.Helper()
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	if err := c.Registry.Save(rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestNoRecordAndNoPID(t *testing.T) {
	c := newChecker(t, fakeInspector{})
	_, err := c.Check(0)
	if !errors.Is(err, ErrNoRegisteredProcess) {
		t.Fatalf("want ErrNoRegisteredProcess, got %v", err)
	}
}

func TestHealthyWhenEverythingMatches(t *testing.T) {
	ins := fakeInspector{
		exists:    map[int]bool{42: true},
		cmdlines:  map[int]string{42: "/bin/sh -c cat < input_pipe > output_pipe"},
		startUnix: map[int]int64{42: 1000},
	}
	c := newChecker(t, ins)
	saveRecord(t, c, registry.Record{PID: 42, Command: "cat", StartUnix: 1000})

	v, err := c.Check(0)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v.Overall != Healthy || v.Process != ProcessRunning || v.Identity != IdentityConfirmed {
		t.Fatalf("unexpected verdict: %+v", v)
	}
	if v.Pipes.Input != PipeExists || v.Pipes.Output != PipeExists {
		t.Fatalf("pipes not reported as existing: %+v", v.Pipes)
	}
}

func TestDeadPIDIsUnhealthyNotAnError(t *testing.T) {
	c := newChecker(t, fakeInspector{})
	saveRecord(t, c, registry.Record{PID: 99999, Command: "cat"})

	v, err := c.Check(0)
	if err != nil {
		t.Fatalf("stale record must not fail the check: %v", err)
	}
	if v.Process != ProcessNotRunning || v.Overall != Unhealthy {
		t.Fatalf("unexpected verdict for dead pid: %+v", v)
	}
}

func TestExplicitPIDWithoutRecord(t *testing.T) {
	ins := fakeInspector{exists: map[int]bool{7: true}}
	c := newChecker(t, ins)

	v, err := c.Check(7)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	// Nothing to compare against: identity is not applicable.
	if v.Identity != IdentityNotApplicable || v.Overall != Healthy {
		t.Fatalf("unexpected verdict: %+v", v)
	}
}

func TestIdentityMismatchMeansPIDReuse(t *testing.T) {
	ins := fakeInspector{
		exists:   map[int]bool{42: true},
		cmdlines: map[int]string{42: "/usr/bin/unrelated-daemon --flag"},
	}
	c := newChecker(t, ins)
	saveRecord(t, c, registry.Record{PID: 42, Command: "cat"})

	v, err := c.Check(0)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v.Identity != IdentityMismatch {
		t.Fatalf("want identity mismatch, got %+v", v)
	}
	if v.Overall == Healthy {
		t.Fatalf("reused pid must not be healthy: %+v", v)
	}
}

func TestStartTimeMismatchMeansPIDReuse(t *testing.T) {
	ins := fakeInspector{
		exists:    map[int]bool{42: true},
		cmdlines:  map[int]string{42: "sh -c cat"},
		startUnix: map[int]int64{42: 2000},
	}
	c := newChecker(t, ins)
	saveRecord(t, c, registry.Record{PID: 42, Command: "cat", StartUnix: 1000})

	v, err := c.Check(0)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v.Identity != IdentityMismatch || v.Overall == Healthy {
		t.Fatalf("start-time mismatch not detected: %+v", v)
	}
}

func TestUnreadableCmdlineDegrades(t *testing.T) {
	ins := fakeInspector{exists: map[int]bool{42: true}}
	c := newChecker(t, ins)
	saveRecord(t, c, registry.Record{PID: 42, Command: "cat"})

	v, err := c.Check(0)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v.Identity != IdentityUnknown || v.Overall != Degraded {
		t.Fatalf("unconfirmable identity should degrade: %+v", v)
	}
}

func TestMissingPipesAreUnhealthy(t *testing.T) {
	ins := fakeInspector{
		exists:   map[int]bool{42: true},
		cmdlines: map[int]string{42: "cat"},
	}
	c := newChecker(t, ins)
	saveRecord(t, c, registry.Record{PID: 42, Command: "cat"})
	if _, err := c.Pipes.Remove(); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	v, err := c.Check(0)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v.Pipes.Input != PipeMissing || v.Overall != Unhealthy {
		t.Fatalf("missing pipes not reflected: %+v", v)
	}
	// Process state is still reported independently.
	if v.Process != ProcessRunning {
		t.Fatalf("process state lost: %+v", v)
	}
}

func TestExpectIdentityOverridesRecordedCommand(t *testing.T) {
	ins := fakeInspector{
		exists:   map[int]bool{42: true},
		cmdlines: map[int]string{42: "python3 excalidraw_agent.py"},
	}
	c := newChecker(t, ins)
	c.ExpectIdentity = "excalidraw_agent"
	saveRecord(t, c, registry.Record{PID: 42, Command: "something-else"})

	v, err := c.Check(0)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if v.Identity != IdentityConfirmed || v.Overall != Healthy {
		t.Fatalf("expect_identity override not applied: %+v", v)
	}
}
