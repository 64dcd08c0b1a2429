//go:build !windows

package messenger

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// writeFIFO opens path for writing without blocking and writes data in
// full. ENXIO on open means no reader has the FIFO open yet; EAGAIN on
// write means the pipe buffer is full and the reader is not draining.
// Both are retried until deadline, then reported as ErrNoReader.
func writeFIFO(path string, data []byte, deadline time.Time, tick time.Duration) error {
	var fd int
	for {
		var err error
		fd, err = unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ENXIO):
			if time.Now().After(deadline) {
				return fmt.Errorf("%w: gave up opening %s", ErrNoReader, path)
			}
			time.Sleep(tick)
		default:
			return fmt.Errorf("open %s for writing: %w", path, err)
		}
	}
	defer func() { _ = unix.Close(fd) }()

	for len(data) > 0 {
		n, err := unix.Write(fd, data)
		if n > 0 {
			data = data[n:]
			continue
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			if time.Now().After(deadline) {
				return fmt.Errorf("%w: pipe %s stayed full", ErrNoReader, path)
			}
			time.Sleep(tick)
		default:
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

// readFIFO opens path for reading without blocking and accumulates chunks
// until deadline. EOF only means no writer currently has the FIFO open; a
// writer may still appear, so the loop runs to the deadline regardless.
func readFIFO(path string, deadline time.Time, tick time.Duration, chunkSize int) ([]byte, error) {
	var fd int
	for {
		var err error
		fd, err = unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
		if err == nil {
			break
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return nil, fmt.Errorf("open %s for reading: %w", path, err)
	}
	defer func() { _ = unix.Close(fd) }()

	var out []byte
	buf := make([]byte, chunkSize)
	for time.Now().Before(deadline) {
		n, err := unix.Read(fd, buf)
		if n > 0 {
			out = append(out, buf[:n]...)
			continue
		}
		if err != nil && !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
			return out, fmt.Errorf("read %s: %w", path, err)
		}
		// n == 0 without error is EOF: no writer right now.
		time.Sleep(tick)
	}
	return out, nil
}
