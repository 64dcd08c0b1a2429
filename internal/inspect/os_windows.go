//go:build windows

package inspect

import (
	"strings"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// OS inspects the live process table via gopsutil on Windows.
type OS struct{}

func (OS) Exists(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := gopsproc.PidExists(int32(pid))
	return err == nil && ok
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
	p, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return 0
	}
	ms, err := p.CreateTime()
	if err != nil || ms <= 0 {
		return 0
	}
	return ms / 1000
}
