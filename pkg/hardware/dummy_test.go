package hardware

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/avoider"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/motor"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/tofsensor"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/wallclock"
)

type fakeClock struct {
	lock sync.Mutex
	now  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.now
}

func (f *fakeClock) NewTicker(d time.Duration) wallclock.Ticker {
	panic("not used")
}

func (f *fakeClock) advance(d time.Duration) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.now = f.now.Add(d)
}

func newTestWorld(startMM float64) (*World, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	return NewWorld(clock, rand.New(rand.NewSource(1)), startMM), clock
}

func TestWorldMovesWithMotor(t *testing.T) {
	w, clock := newTestWorld(1000)

	motor.Apply(w, motor.Command{Direction: motor.Forward, Magnitude: 255})
	clock.advance(time.Second)
	require.InDelta(t, 1000-FullSpeedMMPerSecond, w.DistanceMM(), 1e-6)

	w.Stop()
	clock.advance(time.Second)
	require.InDelta(t, 1000-FullSpeedMMPerSecond, w.DistanceMM(), 1e-6)

	motor.Apply(w, motor.Command{Direction: motor.Backward, Magnitude: 51})
	clock.advance(time.Second)
	require.InDelta(t, 1000-FullSpeedMMPerSecond+FullSpeedMMPerSecond/5, w.DistanceMM(), 1e-6)
}

func TestWorldBumpsAtZero(t *testing.T) {
	w, clock := newTestWorld(100)
	motor.Apply(w, motor.Command{Direction: motor.Forward, Magnitude: 255})
	clock.advance(10 * time.Second)
	require.Equal(t, 0.0, w.DistanceMM())
}

func TestWorldNewObstacleAfterReversing(t *testing.T) {
	w, clock := newTestWorld(100)
	w.SetSpeed(200)
	w.Backward()
	clock.advance(100 * time.Millisecond)
	w.Forward()
	d := w.DistanceMM()
	require.GreaterOrEqual(t, d, float64(minObstacleMM))
	require.LessOrEqual(t, d, float64(maxObstacleMM))
}

func TestSimulatedSensor(t *testing.T) {
	w, _ := newTestWorld(500)
	s := NewSimulatedSensor(w, rand.New(rand.NewSource(2)))
	s.TimeoutRate = 0

	for i := 0; i < 50; i++ {
		mm, err := s.ReadRange()
		require.NoError(t, err)
		require.InDelta(t, 500, mm, 6*s.NoiseMM)
	}

	s.InjectTimeouts(2)
	for i := 0; i < 2; i++ {
		_, err := s.ReadRange()
		require.ErrorIs(t, err, tofsensor.ErrTimeout)
	}
	_, err := s.ReadRange()
	require.NoError(t, err)
}

func TestSimulatedSensorClampsFar(t *testing.T) {
	w, _ := newTestWorld(5000)
	s := NewSimulatedSensor(w, rand.New(rand.NewSource(3)))
	s.TimeoutRate = 0
	mm, err := s.ReadRange()
	require.NoError(t, err)
	require.Equal(t, tofsensor.RangeTooFar, mm)
}

// Starting just beyond the setpoint, the controller should drive towards the
// obstacle, back off once it is too close, and survive sensor timeouts.
func TestControllerAgainstSimulation(t *testing.T) {
	w, clock := newTestWorld(170)
	s := NewSimulatedSensor(w, rand.New(rand.NewSource(4)))
	s.TimeoutRate = 0.05

	var states []avoider.State
	sink := avoider.SinkFunc(func(snap avoider.Snapshot) {
		if len(states) == 0 || states[len(states)-1] != snap.State {
			states = append(states, snap.State)
		}
	})

	cfg := avoider.DefaultConfig()
	c, err := avoider.New(cfg, s, w, sink, avoider.WithClock(clock))
	require.NoError(t, err)

	s.InjectTimeouts(3)
	for i := 0; i < 300; i++ {
		clock.advance(cfg.CyclePeriod())
		c.Step()
	}

	require.GreaterOrEqual(t, c.Faults(), 3)
	require.Contains(t, states, avoider.Forward)
	require.Contains(t, states, avoider.Avoid)
	require.Greater(t, w.DistanceMM(), 0.0)
}

func TestMuxedSensorSelectsPort(t *testing.T) {
	m := &recordingMux{}
	tof := &stubTOF{mm: 321}
	s := &muxedSensor{mux: m, port: 3, tof: tof}

	mm, err := s.ReadRange()
	require.NoError(t, err)
	require.Equal(t, 321, mm)
	require.Equal(t, []int{3}, m.selected)

	m.err = errors.New("nack")
	_, err = s.ReadRange()
	require.ErrorIs(t, err, m.err)
}

type recordingMux struct {
	selected []int
	err      error
}

func (m *recordingMux) SelectSinglePort(n int) error {
	if m.err != nil {
		return m.err
	}
	m.selected = append(m.selected, n)
	return nil
}
func (m *recordingMux) SelectMultiplePorts(byte) error { return nil }
func (m *recordingMux) DisableAllPorts() error         { return nil }
func (m *recordingMux) Close() error                   { return nil }

type stubTOF struct {
	mm int
}

func (s *stubTOF) StartContinuous() error  { return nil }
func (s *stubTOF) ReadRange() (int, error) { return s.mm, nil }
func (s *stubTOF) Close() error            { return nil }
