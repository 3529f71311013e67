// Package tofsensor reads distances from a VL53L0X time-of-flight sensor.
//
// The ST API binding needs cgo and the vendor library, so it is only built with
// the vl53l0x build tag; without it New returns ErrUnsupported.
package tofsensor

import (
	"errors"
	"time"
)

const (
	DefaultAddr = 0x29

	// RangeTooFar is the range in mm that we return if the measurement was invalid, which
	// typically means that the sensor got no response because the surface was too far away.
	RangeTooFar = 2001

	DefaultTimeout = 500 * time.Millisecond
)

var (
	ErrI2CInitFailed     = errors.New("I2C init failed")
	ErrDataInitFailed    = errors.New("data init failed")
	ErrMeasurementFailed = errors.New("measurement failed")
	ErrWaitFailed        = errors.New("failed to wait")
	ErrTimeout           = errors.New("timed out")
	ErrUnsupported       = errors.New("VL53L0X support not built in (build with -tags vl53l0x)")
)

type Interface interface {
	StartContinuous() error
	// ReadRange waits for the next continuous measurement.  It returns
	// ErrTimeout if none arrives within the sensor's timeout.
	ReadRange() (int, error)
	Close() error
}

// pollInterval is how often waitForData re-checks the data-ready flag.
var pollInterval = 100 * time.Microsecond

// waitForData polls ready until it reports true, fails, or timeout elapses.
func waitForData(ready func() (bool, error), timeout time.Duration) error {
	start := time.Now()
	for {
		ok, err := ready()
		if err != nil {
			return ErrWaitFailed
		}
		if ok {
			return nil
		}
		if time.Since(start) > timeout {
			return ErrTimeout
		}
		time.Sleep(pollInterval)
	}
}
