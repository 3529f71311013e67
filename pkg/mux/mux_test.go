package mux

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeDev struct {
	writes [][]byte
	closed bool
}

func (f *fakeDev) Write(buf []byte) error {
	f.writes = append(f.writes, append([]byte(nil), buf...))
	return nil
}

func (f *fakeDev) Close() error {
	f.closed = true
	return nil
}

func TestPortSelection(t *testing.T) {
	f := &fakeDev{}
	m := &Mux{dev: f}

	require.NoError(t, m.SelectSinglePort(0))
	require.NoError(t, m.SelectSinglePort(5))
	require.NoError(t, m.SelectMultiplePorts(0x3f))
	require.NoError(t, m.DisableAllPorts())
	require.Error(t, m.SelectSinglePort(8))
	require.Error(t, m.SelectSinglePort(-1))
	require.NoError(t, m.Close())

	require.Equal(t, [][]byte{{0x01}, {0x20}, {0x3f}, {0x00}}, f.writes)
	require.True(t, f.closed)
}
