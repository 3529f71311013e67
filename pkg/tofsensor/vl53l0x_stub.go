//go:build !vl53l0x

package tofsensor

import "time"

func New(device string, addr byte, timeout time.Duration) (Interface, error) {
	return nil, ErrUnsupported
}
