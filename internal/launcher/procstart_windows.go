//go:build windows

package launcher

import (
	"os/exec"
	"strconv"
)

func shellCommand(script string) *exec.Cmd {
	// #nosec G204
	return exec.Command("cmd", "/C", script)
}

func detach(_ *exec.Cmd) {}

func killProcessGroup(pid int) {
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
