// Package l298n drives one channel of an L298N dual H-bridge: EN takes a PWM
// duty cycle for speed, IN1/IN2 select the direction.
package l298n

import (
	"fmt"
	"log/slog"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/motor"
)

// SpeedOutput is whatever generates the EN pin's PWM signal.
type SpeedOutput interface {
	// SetDuty sets the duty cycle; 0 is off, 1 is fully on.
	SetDuty(duty float64) error
}

// PWMPin generates the EN signal on a host GPIO.
type PWMPin struct {
	Pin       gpio.PinOut
	Frequency physic.Frequency
}

func (p *PWMPin) SetDuty(duty float64) error {
	if duty <= 0 {
		return p.Pin.Out(gpio.Low)
	}
	if duty >= 1 {
		return p.Pin.Out(gpio.High)
	}
	return p.Pin.PWM(gpio.Duty(duty*float64(gpio.DutyMax)), p.Frequency)
}

type Channel struct {
	Name string

	enable   SpeedOutput
	in1, in2 gpio.PinOut
}

var _ motor.Actuator = (*Channel)(nil)

func New(name string, enable SpeedOutput, in1, in2 gpio.PinOut) *Channel {
	return &Channel{
		Name:   name,
		enable: enable,
		in1:    in1,
		in2:    in2,
	}
}

// LookupPin finds a host GPIO by name, e.g. "GPIO14".
func LookupPin(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("no such GPIO %q", name)
	}
	return p, nil
}

func (c *Channel) SetSpeed(speed int) {
	speed = motor.ClampSpeed(speed)
	if err := c.enable.SetDuty(float64(speed) / motor.MaxSpeed); err != nil {
		slog.Error("Failed to set motor speed", "motor", c.Name, "speed", speed, "err", err)
	}
}

func (c *Channel) Forward() {
	c.setDirection(gpio.High, gpio.Low)
}

func (c *Channel) Backward() {
	c.setDirection(gpio.Low, gpio.High)
}

// Stop lets the motor coast by releasing both direction pins.  The EN duty is
// left alone.
func (c *Channel) Stop() {
	c.setDirection(gpio.Low, gpio.Low)
}

func (c *Channel) setDirection(l1, l2 gpio.Level) {
	// Drop the pin that's going low first so the bridge never sees both high.
	first, second := c.in1, c.in2
	firstL, secondL := l1, l2
	if l1 == gpio.High {
		first, second = c.in2, c.in1
		firstL, secondL = l2, l1
	}
	if err := first.Out(firstL); err != nil {
		slog.Error("Failed to set motor direction pin", "motor", c.Name, "pin", first, "err", err)
	}
	if err := second.Out(secondL); err != nil {
		slog.Error("Failed to set motor direction pin", "motor", c.Name, "pin", second, "err", err)
	}
}
