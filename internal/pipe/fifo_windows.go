//go:build windows

package pipe

import "errors"

func mkfifo(_ string, _ uint32) error {
	return errors.New("named pipes (FIFOs) are not supported on windows")
}
