package ina219

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePort struct {
	regs   map[byte]uint16
	writes map[byte][]byte
}

func (f *fakePort) ReadReg(reg byte, buf []byte) error {
	v := f.regs[reg]
	buf[0], buf[1] = byte(v>>8), byte(v)
	return nil
}

func (f *fakePort) WriteReg(reg byte, buf []byte) error {
	f.writes[reg] = append([]byte(nil), buf...)
	return nil
}

func (f *fakePort) Close() error { return nil }

func TestRead(t *testing.T) {
	f := &fakePort{
		regs: map[byte]uint16{
			// 8.4V: 2100 counts of 4mV, shifted past the status bits.
			RegBusV:    2100 << 3,
			RegCurrent: 0xfc18, // -1000 counts
			RegPower:   500,
		},
		writes: map[byte][]byte{},
	}
	m := &INA219{dev: f}
	require.NoError(t, m.Configure(0.1, 3.2768))
	calib := f.writes[RegCalibration]
	require.Len(t, calib, 2)
	require.InDelta(t, 4096, int(calib[0])<<8|int(calib[1]), 1)

	r, err := m.Read()
	require.NoError(t, err)
	require.InDelta(t, 8.4, r.BusVolts, 1e-9)
	require.InDelta(t, -0.1, r.Amps, 1e-9)
	require.InDelta(t, 1.0, r.Watts, 1e-9)
}
