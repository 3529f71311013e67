// Package motor describes a two-terminal DC motor behind an H-bridge.
package motor

import (
	"fmt"
	"log/slog"
	"math"
)

const MaxSpeed = 255

// Actuator is a single motor channel.  Speed and direction are set by separate
// calls; none of them report failure and Stop must be safe to call at any time.
type Actuator interface {
	SetSpeed(speed int)
	Forward()
	Backward()
	Stop()
}

type Direction int

const (
	Stopped Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Stopped:
		return "STOPPED"
	case Forward:
		return "FORWARD"
	case Backward:
		return "BACKWARD"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Command is the per-cycle instruction for an Actuator.
type Command struct {
	Direction Direction
	Magnitude int
}

func (c Command) String() string {
	return fmt.Sprintf("%v@%d", c.Direction, c.Magnitude)
}

// ClampSpeed limits speed to [0, MaxSpeed].
func ClampSpeed(speed int) int {
	if speed < 0 {
		return 0
	}
	if speed > MaxSpeed {
		return MaxSpeed
	}
	return speed
}

// CommandFor converts a signed control output into a command: the sign picks
// the direction and the magnitude is |output| clamped to [0, MaxSpeed].
func CommandFor(output float64) Command {
	var cmd Command
	switch {
	case output > 0:
		cmd.Direction = Forward
	case output < 0:
		cmd.Direction = Backward
	default:
		// Zero, or NaN.
		return Command{Direction: Stopped}
	}
	abs := math.Abs(output)
	if abs >= MaxSpeed {
		cmd.Magnitude = MaxSpeed
	} else {
		cmd.Magnitude = int(abs)
	}
	return cmd
}

// Apply sets the speed, then the direction.
func Apply(a Actuator, cmd Command) {
	a.SetSpeed(ClampSpeed(cmd.Magnitude))
	switch cmd.Direction {
	case Forward:
		a.Forward()
	case Backward:
		a.Backward()
	default:
		a.Stop()
	}
}

// Tandem drives several channels as one, e.g. both sides of an L298N wired to
// wheels that should always turn together.
type Tandem []Actuator

func (t Tandem) SetSpeed(speed int) {
	for _, a := range t {
		a.SetSpeed(speed)
	}
}

func (t Tandem) Forward() {
	for _, a := range t {
		a.Forward()
	}
}

func (t Tandem) Backward() {
	for _, a := range t {
		a.Backward()
	}
}

func (t Tandem) Stop() {
	for _, a := range t {
		a.Stop()
	}
}

var _ Actuator = Tandem(nil)

// Dummy logs every call instead of driving hardware.
type Dummy struct {
	Name string
}

func (d *Dummy) SetSpeed(speed int) {
	slog.Debug("Dummy motor: SetSpeed", "motor", d.Name, "speed", ClampSpeed(speed))
}

func (d *Dummy) Forward() {
	slog.Debug("Dummy motor: Forward", "motor", d.Name)
}

func (d *Dummy) Backward() {
	slog.Debug("Dummy motor: Backward", "motor", d.Name)
}

func (d *Dummy) Stop() {
	slog.Debug("Dummy motor: Stop", "motor", d.Name)
}

var _ Actuator = (*Dummy)(nil)
