//go:build !windows

package pipe

import "golang.org/x/sys/unix"

func mkfifo(path string, perm uint32) error {
	return unix.Mkfifo(path, perm)
}
