package motor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
	speed int
}

func (r *recorder) SetSpeed(speed int) {
	r.speed = speed
	r.calls = append(r.calls, "speed")
}
func (r *recorder) Forward()  { r.calls = append(r.calls, "forward") }
func (r *recorder) Backward() { r.calls = append(r.calls, "backward") }
func (r *recorder) Stop()     { r.calls = append(r.calls, "stop") }

func TestCommandFor(t *testing.T) {
	for _, tc := range []struct {
		output   float64
		expected Command
	}{
		{0, Command{Stopped, 0}},
		{226, Command{Forward, 226}},
		{-12.7, Command{Backward, 12}},
		{0.4, Command{Forward, 0}},
		{1e9, Command{Forward, 255}},
		{-1e9, Command{Backward, 255}},
		{math.Inf(1), Command{Forward, 255}},
		{math.Inf(-1), Command{Backward, 255}},
		{math.NaN(), Command{Stopped, 0}},
	} {
		require.Equal(t, tc.expected, CommandFor(tc.output), "output %v", tc.output)
	}
}

func TestMagnitudeAlwaysInRange(t *testing.T) {
	for output := -100000.0; output <= 100000; output += 37.3 {
		cmd := CommandFor(output)
		if cmd.Magnitude < 0 || cmd.Magnitude > MaxSpeed {
			t.Fatalf("Output %v gave magnitude %d", output, cmd.Magnitude)
		}
	}
}

func TestApplySetsSpeedBeforeDirection(t *testing.T) {
	r := &recorder{}
	Apply(r, Command{Backward, 120})
	require.Equal(t, []string{"speed", "backward"}, r.calls)
	require.Equal(t, 120, r.speed)

	r = &recorder{}
	Apply(r, Command{Stopped, 0})
	require.Equal(t, []string{"speed", "stop"}, r.calls)
}

func TestApplyClampsSpeed(t *testing.T) {
	r := &recorder{}
	Apply(r, Command{Forward, 1000})
	require.Equal(t, MaxSpeed, r.speed)
	Apply(r, Command{Forward, -5})
	require.Equal(t, 0, r.speed)
}

func TestTandem(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Apply(Tandem{a, b}, Command{Forward, 90})
	Tandem{a, b}.Stop()
	for _, r := range []*recorder{a, b} {
		require.Equal(t, []string{"speed", "forward", "stop"}, r.calls)
		require.Equal(t, 90, r.speed)
	}
}
