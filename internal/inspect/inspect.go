// Package inspect provides a narrow process-inspection capability so the
// core logic never talks to the OS process table directly. Implementations
// must be safe for concurrent use.
package inspect

// Inspector answers questions about a PID in the OS process table.
type Inspector interface {
	// Exists returns true when a process with the given pid is present
	// and not a zombie.
	Exists(pid int) bool
	// CommandLine returns the current command line of the pid, and false
	// when it cannot be determined (process gone, permission denied).
	CommandLine(pid int) (string, bool)
	// StartUnix returns the process start time in Unix seconds, or 0
	// when unavailable. Used to detect PID reuse.
	StartUnix(pid int) int64
}
