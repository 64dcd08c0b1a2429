package pipe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Default pipe file names, relative to the working directory.
const (
	DefaultInput  = "input_pipe"
	DefaultOutput = "output_pipe"
)

var (
	// ErrPathConflict is returned when a pipe path is occupied by a regular
	// file or directory instead of a FIFO. The occupant is never replaced.
	ErrPathConflict = errors.New("path conflict: not a named pipe")
	// ErrNotReady is returned by operations that need pipes which do not
	// exist yet; setup must run first.
	ErrNotReady = errors.New("pipes not ready")
)

// Pair holds the filesystem locations of the input and output pipes.
type Pair struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// DefaultPair returns the conventional pipe pair rooted at dir.
func DefaultPair(dir string) Pair {
	return Pair{
		Input:  filepath.Join(dir, DefaultInput),
		Output: filepath.Join(dir, DefaultOutput),
	}
}

// Validate checks that both paths are set and distinct.
func (p Pair) Validate() error {
	if p.Input == "" || p.Output == "" {
		return errors.New("pipe pair: both input and output paths are required")
	}
	if p.Input == p.Output {
		return fmt.Errorf("pipe pair: input and output must differ, both are %q", p.Input)
	}
	return nil
}

// Ensure creates each pipe that does not exist yet. An existing FIFO is
// left alone; an existing non-FIFO fails with ErrPathConflict. Calling
// Ensure again after success is a no-op.
func (p Pair) Ensure() error {
	if err := p.Validate(); err != nil {
		return err
	}
	for _, path := range []string{p.Input, p.Output} {
		if err := ensureFIFO(path); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether each path currently exists as a FIFO.
func (p Pair) Exists() (input, output bool) {
	return isFIFO(p.Input), isFIFO(p.Output)
}

// Ready reports whether both pipes exist and are FIFOs.
func (p Pair) Ready() bool {
	in, out := p.Exists()
	return in && out
}

// Remove deletes each pipe file that exists and returns the paths it
// actually removed. Absent paths are skipped; the first removal error
// aborts and is returned alongside what was removed so far.
func (p Pair) Remove() ([]string, error) {
	var removed []string
	for _, path := range []string{p.Input, p.Output} {
		if _, err := os.Lstat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, err
		}
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("remove pipe %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

func ensureFIFO(path string) error {
	fi, err := os.Lstat(path)
	if err == nil {
		if fi.Mode()&os.ModeNamedPipe == 0 {
			return fmt.Errorf("%w: %s", ErrPathConflict, path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	if err := mkfifo(path, 0o600); err != nil {
		return fmt.Errorf("mkfifo %s: %w", path, err)
	}
	return nil
}

func isFIFO(path string) bool {
	fi, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeNamedPipe != 0
}
