package l298n

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/motor"
)

type dutyRecorder struct {
	duties []float64
	err    error
}

func (d *dutyRecorder) SetDuty(duty float64) error {
	d.duties = append(d.duties, duty)
	return d.err
}

func newTestChannel() (*Channel, *dutyRecorder, *gpiotest.Pin, *gpiotest.Pin) {
	en := &dutyRecorder{}
	in1 := &gpiotest.Pin{N: "IN1"}
	in2 := &gpiotest.Pin{N: "IN2"}
	return New("A", en, in1, in2), en, in1, in2
}

func TestDirections(t *testing.T) {
	c, _, in1, in2 := newTestChannel()

	c.Forward()
	require.Equal(t, gpio.High, in1.L)
	require.Equal(t, gpio.Low, in2.L)

	c.Backward()
	require.Equal(t, gpio.Low, in1.L)
	require.Equal(t, gpio.High, in2.L)

	c.Stop()
	require.Equal(t, gpio.Low, in1.L)
	require.Equal(t, gpio.Low, in2.L)
}

func TestSpeedIsScaledAndClamped(t *testing.T) {
	c, en, _, _ := newTestChannel()
	c.SetSpeed(0)
	c.SetSpeed(255)
	c.SetSpeed(51)
	c.SetSpeed(999)
	c.SetSpeed(-4)
	require.Equal(t, []float64{0, 1, 0.2, 1, 0}, en.duties)
}

func TestSpeedErrorsAreSwallowed(t *testing.T) {
	c, en, _, _ := newTestChannel()
	en.err = errors.New("bus gone")
	require.NotPanics(t, func() { motor.Apply(c, motor.Command{Direction: motor.Forward, Magnitude: 10}) })
}

func TestPWMPinExtremesAreDigital(t *testing.T) {
	pin := &gpiotest.Pin{N: "EN"}
	p := &PWMPin{Pin: pin, Frequency: 1000}

	require.NoError(t, p.SetDuty(1))
	require.Equal(t, gpio.High, pin.L)
	require.NoError(t, p.SetDuty(0))
	require.Equal(t, gpio.Low, pin.L)
}
