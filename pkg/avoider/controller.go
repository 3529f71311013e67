// Package avoider is the obstacle-avoidance control loop: each cycle reads the
// range sensor, smooths the reading, runs the IDLE/FORWARD/AVOID state machine
// (regulating speed with a PID loop while in FORWARD) and publishes a Snapshot.
package avoider

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/filter"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/motor"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/pid"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/wallclock"
)

// RangeSensor is the distance sensor as seen by the controller.  Any error,
// timeouts included, is treated as a transient fault and retried next cycle.
type RangeSensor interface {
	ReadRange() (int, error)
}

// StatusSink receives one Snapshot per healthy cycle.  Publish must not block
// the control loop for any material time.
type StatusSink interface {
	Publish(s Snapshot)
}

type Option func(*Controller)

// WithClock replaces the real clock, for tests.
func WithClock(clock wallclock.WallClock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// Controller owns the filter, PID and state-machine state for one robot.  The
// motor and sink are exclusive to it for its lifetime.
type Controller struct {
	cfg    Config
	sensor RangeSensor
	motor  motor.Actuator
	sink   StatusSink
	clock  wallclock.WallClock

	// lock serialises whole cycles, so Step is safe to call from any goroutine.
	lock           sync.Mutex
	filter         *filter.MovingAverage
	pid            *pid.Controller
	state          State
	stateEnteredAt time.Time

	lastSnapshot Snapshot
	haveSnapshot bool
	faults       int
	faultStreak  int
}

// New validates cfg and returns a controller in IDLE with the motor stopped.
func New(cfg Config, sensor RangeSensor, m motor.Actuator, sink StatusSink, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:    cfg,
		sensor: sensor,
		motor:  m,
		sink:   sink,
		clock:  wallclock.Instance,
		filter: filter.NewMovingAverage(cfg.FilterDepth),
		pid: pid.New(
			cfg.PID.Setpoint,
			cfg.PID.Kp,
			cfg.PID.Ki,
			cfg.PID.Kd,
			cfg.PID.DTSeconds,
		),
	}
	for _, o := range opts {
		o(c)
	}
	slog.Info("Avoider starting in IDLE", "idleFor", cfg.IdleDuration())
	c.enter(Idle, c.clock.Now())
	return c, nil
}

func (c *Controller) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

// LastSnapshot returns the snapshot of the most recent healthy cycle.
func (c *Controller) LastSnapshot() (Snapshot, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.lastSnapshot, c.haveSnapshot
}

// Faults returns the number of cycles skipped because of sensor faults.
func (c *Controller) Faults() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.faults
}

// Step runs one read, filter, decide, actuate, publish cycle.
func (c *Controller) Step() {
	c.lock.Lock()
	defer c.lock.Unlock()

	raw, err := c.sensor.ReadRange()
	if err != nil {
		c.motor.Stop()
		c.faults++
		c.faultStreak++
		if c.faultStreak == 1 {
			slog.Warn("Range sensor fault; holding motor stopped", "state", c.state, "err", err)
		}
		return
	}
	if c.faultStreak > 0 {
		slog.Info("Range sensor recovered", "faultyCycles", c.faultStreak)
		c.faultStreak = 0
	}

	now := c.clock.Now()
	filtered := c.filter.Push(raw)
	snap := Snapshot{
		CaptureTime: now,
		RawMM:       raw,
		FilteredMM:  filtered,
		Error:       c.cfg.PID.Setpoint - float64(filtered),
	}

	switch c.state {
	case Idle:
		if now.Sub(c.stateEnteredAt) >= c.cfg.IdleDuration() {
			c.enter(Forward, now)
		}
	case Forward:
		if filtered < c.cfg.AvoidThresholdMM {
			c.enter(Avoid, now)
			cmd := motor.Command{Direction: motor.Backward, Magnitude: c.cfg.AvoidSpeed}
			motor.Apply(c.motor, cmd)
			snap.Command, snap.CommandSet = cmd, true
			break
		}
		output := c.pid.Step(float64(filtered))
		cmd := motor.CommandFor(output)
		motor.Apply(c.motor, cmd)
		snap.Command, snap.CommandSet = cmd, true
		slog.Debug("PID", "filtered", filtered, "output", output, "integral", c.pid.Integral(), "cmd", cmd)
	case Avoid:
		if now.Sub(c.stateEnteredAt) >= c.cfg.AvoidDuration() {
			c.enter(Forward, now)
		}
	}

	snap.State = c.state
	c.lastSnapshot, c.haveSnapshot = snap, true
	c.sink.Publish(snap)
}

func (c *Controller) enter(s State, now time.Time) {
	if s != c.state {
		slog.Info("State change", "from", c.state, "to", s)
	}
	c.state = s
	c.stateEnteredAt = now
	switch s {
	case Idle:
		c.motor.Stop()
	case Forward:
		if c.cfg.PID.ResetOnForward {
			c.pid.Reset()
		}
	}
}

// Loop runs Step every cycle period until ctx is done, then stops the motor.
func (c *Controller) Loop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer slog.Info("Avoider loop exited")
	defer c.motor.Stop()

	ticker := c.clock.NewTicker(c.cfg.CyclePeriod())
	defer ticker.Stop()

	for ctx.Err() == nil {
		c.Step()
		select {
		case <-ctx.Done():
		case <-ticker.C():
		}
	}
}
