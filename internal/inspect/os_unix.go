//go:build !windows

package inspect

import (
	"errors"
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"
)

// OS inspects the live process table. Liveness uses the null signal;
// command lines come from gopsutil so the same code serves Linux and BSDs.
type OS struct{}

func (OS) Exists(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err != nil && !errors.Is(err, unix.EPERM) {
		return false
	}
	return !isZombie(pid)
}

func (OS) CommandLine(pid int) (string, bool) {
	if pid <= 0 {
		return "", false
	}
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return "", false
	}
	cmdline, err := p.Cmdline()
	if err != nil || strings.TrimSpace(cmdline) == "" {
		return "", false
	}
	return cmdline, true
}

func (OS) StartUnix(pid int) int64 {
	return procStartUnix(pid)
}

func isZombie(pid int) bool {
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	statuses, err := p.Status()
	if err != nil {
		return false
	}
	for _, s := range statuses {
		if s == gopsproc.Zombie {
			return true
		}
	}
	return false
}
