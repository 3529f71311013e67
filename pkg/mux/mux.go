// Package mux switches the downstream ports of a TCA9548A I2C multiplexer.
// Devices that share an address (such as our VL53L0X) hang off their own port.
package mux

import (
	"fmt"

	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x70

	NumPorts = 8
)

type Interface interface {
	DisableAllPorts() error
	SelectSinglePort(num int) error
	SelectMultiplePorts(mask byte) error
	Close() error
}

type writer interface {
	Write(buf []byte) error
	Close() error
}

type Mux struct {
	dev writer
}

func New(deviceFile string, addr int) (*Mux, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, err
	}
	return &Mux{
		dev: dev,
	}, nil
}

func (p *Mux) SelectSinglePort(num int) error {
	if num < 0 || num >= NumPorts {
		return fmt.Errorf("mux port %d out of range", num)
	}
	return p.dev.Write([]byte{1 << uint(num)})
}

func (p *Mux) SelectMultiplePorts(mask byte) error {
	return p.dev.Write([]byte{mask})
}

func (p *Mux) DisableAllPorts() error {
	return p.dev.Write([]byte{0})
}

func (p *Mux) Close() error {
	return p.dev.Close()
}

var _ Interface = (*Mux)(nil)
