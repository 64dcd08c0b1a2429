//go:build !windows

package inspect

import (
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestExistsForOwnProcess(t *testing.T) {
	ins := OS{}
	if !ins.Exists(os.Getpid()) {
		t.Fatal("own pid reported as not existing")
	}
}

func TestExistsForBogusPIDs(t *testing.T) {
	ins := OS{}
	for _, pid := range []int{0, -1, 1 << 28} {
		if ins.Exists(pid) {
			t.Fatalf("pid %d reported as existing", pid)
		}
	}
}

func TestExistsTreatsZombieAsGone(t *testing.T) {
	cmd := exec.Command("/bin/true")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := cmd.Process.Pid
	// Give it a moment to exit without reaping it.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !(OS{}).Exists(pid) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if (OS{}).Exists(pid) {
		t.Fatalf("zombie pid %d still reported as existing", pid)
	}
	_ = cmd.Wait()
}

func TestCommandLineForOwnProcess(t *testing.T) {
	ins := OS{}
	cmdline, ok := ins.CommandLine(os.Getpid())
	if !ok || cmdline == "" {
		t.Fatalf("no command line for own pid: %q ok=%v", cmdline, ok)
	}
	if _, ok := ins.CommandLine(1 << 28); ok {
		t.Fatal("command line reported for bogus pid")
	}
}

func TestStartUnixPlausible(t *testing.T) {
	ins := OS{}
	start := ins.StartUnix(os.Getpid())
	if start <= 0 {
		t.Skip("process start time unavailable on this platform")
	}
	now := time.Now().Unix()
	if start > now || start < now-24*3600 {
		t.Fatalf("implausible start time %d (now %d)", start, now)
	}
	if ins.StartUnix(-1) != 0 {
		t.Fatal("start time for negative pid")
	}
}
