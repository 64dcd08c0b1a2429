//go:build windows

package cleaner

import (
	"os/exec"
	"strconv"
)

func signalGroup(pid int, force bool) {
	args := []string{"/T", "/PID", strconv.Itoa(pid)}
	if force {
		args = append([]string{"/F"}, args...)
	}
	_ = exec.Command("taskkill", args...).Run()
}
