// Package ina219 reads battery voltage and current from an INA219 power monitor.
package ina219

import (
	"log/slog"

	"golang.org/x/exp/io/i2c"
)

const (
	RegConfig      = 0
	RegShuntV      = 1
	RegBusV        = 2
	RegPower       = 3
	RegCurrent     = 4
	RegCalibration = 5

	BusVoltageLSB = 0.004
)

type port interface {
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) error
	Close() error
}

type INA219 struct {
	currentLSB float64
	dev        port
}

type Reading struct {
	BusVolts float64
	Amps     float64
	Watts    float64
}

func NewI2C(deviceFile string, addr int) (*INA219, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, err
	}
	return &INA219{
		dev: dev,
	}, nil
}

// Configure writes the calibration register for the given shunt and the
// largest current we expect to measure.
func (m *INA219) Configure(shuntOhms float64, maxCurrent float64) error {
	m.currentLSB = maxCurrent / (1 << 15)
	cval := CalibrationValue(m.currentLSB, shuntOhms)
	slog.Debug("INA219 calibrated", "value", cval)
	return m.dev.WriteReg(RegCalibration, []byte{byte(cval >> 8), byte(cval)})
}

func (m *INA219) BusVoltage() (float64, error) {
	raw, err := m.read16(RegBusV)
	if err != nil {
		return 0, err
	}
	return float64(raw>>3) * BusVoltageLSB, nil
}

func (m *INA219) Read() (Reading, error) {
	var r Reading
	var err error
	if r.BusVolts, err = m.BusVoltage(); err != nil {
		return r, err
	}
	current, err := m.read16(RegCurrent)
	if err != nil {
		return r, err
	}
	r.Amps = float64(int16(current)) * m.currentLSB
	power, err := m.read16(RegPower)
	if err != nil {
		return r, err
	}
	r.Watts = float64(power) * m.currentLSB * 20
	return r, nil
}

func (m *INA219) Close() error {
	return m.dev.Close()
}

func (m *INA219) read16(reg byte) (uint16, error) {
	var buf [2]byte
	err := m.dev.ReadReg(reg, buf[:])
	return uint16(buf[0])<<8 | uint16(buf[1]), err
}

func CalibrationValue(currentLSB float64, shuntOhms float64) uint16 {
	return uint16(0.04096 / (currentLSB * shuntOhms))
}
