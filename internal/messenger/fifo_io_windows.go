//go:build windows

package messenger

import (
	"errors"
	"time"
)

var errUnsupported = errors.New("FIFO message exchange is not supported on windows")

func writeFIFO(_ string, _ []byte, _ time.Time, _ time.Duration) error {
	return errUnsupported
}

func readFIFO(_ string, _ time.Time, _ time.Duration, _ int) ([]byte, error) {
	return nil, errUnsupported
}
