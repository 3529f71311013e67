package hardware

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/avoider"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/motor"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/tofsensor"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/wallclock"
)

const (
	// FullSpeedMMPerSecond is how fast the simulated robot moves at speed 255.
	FullSpeedMMPerSecond = 400

	minObstacleMM = 300
	maxObstacleMM = 1500
)

// World is a one-dimensional simulation of the robot facing an obstacle.  It
// implements motor.Actuator; reversing is taken to include a turn, so the next
// forward run faces a fresh obstacle at a random distance.
type World struct {
	clock wallclock.WallClock
	rng   *rand.Rand

	lock       sync.Mutex
	distanceMM float64
	speed      int
	direction  motor.Direction
	reversed   bool
	lastUpdate time.Time
}

func NewWorld(clock wallclock.WallClock, rng *rand.Rand, startMM float64) *World {
	return &World{
		clock:      clock,
		rng:        rng,
		distanceMM: startMM,
		lastUpdate: clock.Now(),
	}
}

// DistanceMM is the true distance to the obstacle now.
func (w *World) DistanceMM() float64 {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.advance()
	return w.distanceMM
}

// advance integrates motion since the last update.  Must hold lock.
func (w *World) advance() {
	now := w.clock.Now()
	dt := now.Sub(w.lastUpdate).Seconds()
	w.lastUpdate = now

	v := float64(w.speed) / motor.MaxSpeed * FullSpeedMMPerSecond
	switch w.direction {
	case motor.Forward:
		w.distanceMM -= v * dt
	case motor.Backward:
		w.distanceMM += v * dt
	}
	if w.distanceMM < 0 {
		// Bumped into it.
		w.distanceMM = 0
	}
}

func (w *World) SetSpeed(speed int) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.advance()
	w.speed = motor.ClampSpeed(speed)
}

func (w *World) Forward() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.advance()
	if w.reversed {
		w.distanceMM = minObstacleMM + w.rng.Float64()*(maxObstacleMM-minObstacleMM)
		w.reversed = false
	}
	w.direction = motor.Forward
}

func (w *World) Backward() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.advance()
	w.direction = motor.Backward
	w.reversed = true
}

func (w *World) Stop() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.advance()
	w.direction = motor.Stopped
}

var _ motor.Actuator = (*World)(nil)

// SimulatedSensor reads the World's distance with Gaussian noise, and times
// out at random or on demand.
type SimulatedSensor struct {
	World       *World
	NoiseMM     float64
	TimeoutRate float64

	lock          sync.Mutex
	rng           *rand.Rand
	forceTimeouts int
}

func NewSimulatedSensor(world *World, rng *rand.Rand) *SimulatedSensor {
	return &SimulatedSensor{
		World:       world,
		NoiseMM:     8,
		TimeoutRate: 0.02,
		rng:         rng,
	}
}

// InjectTimeouts makes the next n reads fail with tofsensor.ErrTimeout.
func (s *SimulatedSensor) InjectTimeouts(n int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.forceTimeouts += n
}

func (s *SimulatedSensor) ReadRange() (int, error) {
	s.lock.Lock()
	if s.forceTimeouts > 0 {
		s.forceTimeouts--
		s.lock.Unlock()
		return 0, tofsensor.ErrTimeout
	}
	timeout := s.rng.Float64() < s.TimeoutRate
	noise := s.rng.NormFloat64() * s.NoiseMM
	s.lock.Unlock()

	if timeout {
		return 0, tofsensor.ErrTimeout
	}
	mm := math.Round(s.World.DistanceMM() + noise)
	if mm < 0 {
		mm = 0
	}
	if mm >= tofsensor.RangeTooFar {
		return tofsensor.RangeTooFar, nil
	}
	return int(mm), nil
}

// Dummy is simulated hardware for running the controller off the robot.
type Dummy struct {
	world  *World
	sensor *SimulatedSensor
	motor  motor.Actuator
}

var _ Interface = (*Dummy)(nil)

func NewDummy() *Dummy {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	world := NewWorld(wallclock.Instance, rng, maxObstacleMM)
	return &Dummy{
		world:  world,
		sensor: NewSimulatedSensor(world, rng),
		motor:  motor.Tandem{world, &motor.Dummy{Name: "sim"}},
	}
}

func (d *Dummy) Start(ctx context.Context, wg *sync.WaitGroup) {
	slog.Info("DHW: Start", "distanceMM", d.world.DistanceMM())
}

func (d *Dummy) DistanceSensor() avoider.RangeSensor {
	return d.sensor
}

func (d *Dummy) Motor() motor.Actuator {
	return d.motor
}

func (d *Dummy) StatusSinks() []avoider.StatusSink {
	return nil
}

// Sensor exposes the simulated sensor so callers can inject faults.
func (d *Dummy) Sensor() *SimulatedSensor {
	return d.sensor
}

func (d *Dummy) Shutdown() {
	slog.Info("DHW: Shutdown")
	d.motor.Stop()
}
