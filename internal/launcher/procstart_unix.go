//go:build !windows

package launcher

import (
	"os/exec"
	"syscall"
)

// shellCommand wraps script for /bin/sh; redirection is shell syntax, so
// no metacharacter detection applies here.
func shellCommand(script string) *exec.Cmd {
	// #nosec G204
	return exec.Command("/bin/sh", "-c", script)
}

// detach starts the child in a new session so it is detached from the
// controlling terminal and survives parent exit.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// killProcessGroup force-kills the child's whole process group. The child
// leads its own session, so its pid doubles as the group id.
func killProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
