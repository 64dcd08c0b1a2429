// Package messenger performs single-shot message exchange over the pipe
// pair. Every open, write, and read is bounded by a deadline: a FIFO with
// no counterpart blocks forever on a plain open, and that must never
// reach the caller.
package messenger

import (
	"errors"
	"fmt"
	"time"

	"github.com/loykin/fifoctl/internal/pipe"
)

const (
	// DefaultWriteTimeout bounds how long Write waits for a reader to
	// appear on the input pipe.
	DefaultWriteTimeout = 5 * time.Second
	// DefaultReadTimeout is the hard deadline for Read.
	DefaultReadTimeout = 3 * time.Second

	// pollTick is the sleep interval inside the open/read/write loops.
	pollTick = 50 * time.Millisecond

	readChunkSize = 4096
)

var (
	// ErrNoReader means the write deadline expired with no process
	// reading the input pipe (or the pipe stayed full).
	ErrNoReader = errors.New("no reader on input pipe")
	// ErrNoData means the read deadline expired with zero bytes read.
	ErrNoData = errors.New("no data available")
)

// Messenger writes to and reads from an existing pipe pair.
type Messenger struct {
	Pipes        pipe.Pair
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
}

// New returns a Messenger with default timeouts.
func New(pipes pipe.Pair) Messenger {
	return Messenger{
		Pipes:        pipes,
		WriteTimeout: DefaultWriteTimeout,
		ReadTimeout:  DefaultReadTimeout,
	}
}

// Write delivers message plus a trailing newline into the input pipe.
// Opening blocks until a reader exists; Write polls in non-blocking mode
// and gives up with ErrNoReader when the deadline passes. Writes under
// the OS pipe buffer size are atomic with respect to other writers;
// larger messages carry no interleaving guarantee (single-writer usage
// is assumed).
func (m Messenger) Write(message string) error {
	in, _ := m.Pipes.Exists()
	if !in {
		return fmt.Errorf("%w: input pipe %s", pipe.ErrNotReady, m.Pipes.Input)
	}
	timeout := m.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	deadline := time.Now().Add(timeout)
	return writeFIFO(m.Pipes.Input, []byte(message+"\n"), deadline, pollTick)
}

// Read drains available bytes from the output pipe under a hard deadline:
// it keeps collecting until the timeout fires and returns everything read
// by then. A child that writes continuously is therefore never cut off
// mid-stream before the deadline. Zero bytes at the deadline yields
// ErrNoData.
func (m Messenger) Read(timeout time.Duration) (string, error) {
	_, out := m.Pipes.Exists()
	if !out {
		return "", fmt.Errorf("%w: output pipe %s", pipe.ErrNotReady, m.Pipes.Output)
	}
	if timeout <= 0 {
		timeout = m.ReadTimeout
	}
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	deadline := time.Now().Add(timeout)
	data, err := readFIFO(m.Pipes.Output, deadline, pollTick, readChunkSize)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrNoData
	}
	return string(data), nil
}
