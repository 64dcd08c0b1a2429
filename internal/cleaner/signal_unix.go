//go:build !windows

package cleaner

import "syscall"

// signalGroup signals the whole process group so children of the shell
// wrapper go down too. Falls back to the single pid when the group is
// already gone.
func signalGroup(pid int, force bool) {
	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}
	if err := syscall.Kill(-pid, sig); err != nil {
		_ = syscall.Kill(pid, sig)
	}
}
