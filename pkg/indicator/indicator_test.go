package indicator

import (
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/avoider"
)

type countingPin struct {
	gpiotest.Pin
	writes int
}

func (p *countingPin) Out(l gpio.Level) error {
	p.writes++
	return p.Pin.Out(l)
}

func TestLEDFollowsAvoid(t *testing.T) {
	pin := &countingPin{Pin: gpiotest.Pin{N: "LED"}}
	led := New(pin)

	led.Publish(avoider.Snapshot{State: avoider.Idle})
	require.Equal(t, gpio.Low, pin.Read())
	led.Publish(avoider.Snapshot{State: avoider.Avoid})
	require.Equal(t, gpio.High, pin.Read())
	led.Publish(avoider.Snapshot{State: avoider.Avoid})
	led.Publish(avoider.Snapshot{State: avoider.Forward})
	require.Equal(t, gpio.Low, pin.Read())
	require.Equal(t, 3, pin.writes)

	led.Off()
	require.Equal(t, 3, pin.writes)
}
