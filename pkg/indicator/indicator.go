// Package indicator lights an LED while the robot is avoiding an obstacle.
package indicator

import (
	"log/slog"
	"sync"

	"periph.io/x/periph/conn/gpio"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/avoider"
)

type LED struct {
	pin gpio.PinOut

	lock  sync.Mutex
	level gpio.Level
	known bool
}

func New(pin gpio.PinOut) *LED {
	return &LED{pin: pin}
}

// Publish drives the pin high in AVOID and low otherwise.  The pin is only
// written when the level changes.
func (l *LED) Publish(s avoider.Snapshot) {
	l.set(s.State == avoider.Avoid)
}

// Off turns the LED off, for use on shutdown.
func (l *LED) Off() {
	l.set(false)
}

func (l *LED) set(on bool) {
	l.lock.Lock()
	defer l.lock.Unlock()

	level := gpio.Level(on)
	if l.known && level == l.level {
		return
	}
	if err := l.pin.Out(level); err != nil {
		slog.Error("Failed to set indicator", "pin", l.pin.Name(), "err", err)
		return
	}
	l.level, l.known = level, true
}
