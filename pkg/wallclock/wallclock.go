// Package wallclock indirects the bits of package time the control loop uses so
// tests can control apparent time.
package wallclock

import "time"

type (
	WallClock interface {
		Now() time.Time
		NewTicker(d time.Duration) Ticker
	}

	// Ticker abstracts time.Ticker.
	Ticker interface {
		C() <-chan time.Time
		Stop()
	}

	wallClock struct{}

	ticker struct {
		*time.Ticker
	}
)

// Now indirects time.Now.  The result carries a monotonic reading, so
// differences between two Now values are immune to wall-clock steps.
func (wallClock) Now() time.Time {
	return time.Now()
}

func (wallClock) NewTicker(d time.Duration) Ticker {
	return ticker{Ticker: time.NewTicker(d)}
}

func (t ticker) C() <-chan time.Time {
	return t.Ticker.C
}

// Instance is the real clock.
var Instance WallClock = wallClock{}
