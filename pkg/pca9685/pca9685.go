// Package pca9685 drives the PCA9685 16-channel PWM expander.  We use it to
// generate motor enable signals on hosts without spare hardware PWM.
package pca9685

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x40

	NumChannels = 16

	RegMode1 = 0x00
	RegMode2 = 0x01

	// Each PWM output has two 16-bit (low byte first) registers.
	// First register is the on time, second is the off time.
	RegLEDBase = 0x06

	RegPreScale = 0xfe // Pre-scaler for PWM frequency.

	oscillatorHz = 25000000
	steps        = 4096

	// Bit 4 of the high on/off byte forces the output fully on/off.
	fullBit = 0x10
)

type port interface {
	WriteReg(reg byte, buf []byte) error
	Close() error
}

type PCA9685 struct {
	dev port
}

func New(deviceFile string, addr int) (*PCA9685, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, err
	}
	return &PCA9685{
		dev: dev,
	}, nil
}

// PreScale returns the prescaler value for the given PWM frequency.
func PreScale(frequencyHz int) byte {
	v := math.Round(float64(oscillatorHz)/(steps*float64(frequencyHz))) - 1
	if v < 3 {
		return 3
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Configure sets the PWM frequency shared by all channels and starts the
// oscillator.  All outputs come up off.
func (p *PCA9685) Configure(frequencyHz int) (err error) {
	// Prescaler can only be written while asleep.
	err = p.dev.WriteReg(RegMode1, []byte{0x11})
	if err != nil {
		return
	}
	err = p.dev.WriteReg(RegPreScale, []byte{PreScale(frequencyHz)})
	if err != nil {
		return
	}
	err = p.dev.WriteReg(RegMode1, []byte{0x01})
	if err != nil {
		return
	}
	// Oscillator needs 500us to settle after wake.
	time.Sleep(1 * time.Millisecond)
	// Restart, auto-increment.
	err = p.dev.WriteReg(RegMode1, []byte{0xa1})
	if err != nil {
		return
	}
	for ch := 0; ch < NumChannels; ch++ {
		if err = p.SetDuty(ch, 0); err != nil {
			return
		}
	}
	return
}

// SetDuty sets channel ch's duty cycle, 0 to 1.
func (p *PCA9685) SetDuty(ch int, duty float64) error {
	if ch < 0 || ch >= NumChannels {
		return fmt.Errorf("PWM channel out of range: %d", ch)
	}
	return p.dev.WriteReg(byte(RegLEDBase+ch*4), dutyRegisters(duty))
}

func dutyRegisters(duty float64) []byte {
	switch {
	case duty <= 0:
		return []byte{0, 0, 0, fullBit}
	case duty >= 1:
		return []byte{0, fullBit, 0, 0}
	}
	off := uint16(duty * (steps - 1))
	return []byte{0, 0, byte(off & 0xff), byte(off >> 8)}
}

func (p *PCA9685) Close() error {
	return p.dev.Close()
}

// Channel is one PWM output, usable as an L298N enable signal.
type Channel struct {
	Dev *PCA9685
	N   int
}

func (p *PCA9685) Channel(n int) *Channel {
	return &Channel{Dev: p, N: n}
}

func (c *Channel) SetDuty(duty float64) error {
	return c.Dev.SetDuty(c.N, duty)
}
