package avoider

import (
	"fmt"
	"time"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/motor"
)

type State int

const (
	Idle State = iota
	Forward
	Avoid
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Forward:
		return "FORWARD"
	case Avoid:
		return "AVOID"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is the controller's view of one completed cycle.
type Snapshot struct {
	CaptureTime time.Time

	RawMM      int
	FilteredMM int
	// Error is setpoint - filtered distance.
	Error float64
	State State

	// Command is the motor command issued this cycle, if any.
	Command    motor.Command
	CommandSet bool
}

func (s Snapshot) String() string {
	cmd := "-"
	if s.CommandSet {
		cmd = s.Command.String()
	}
	return fmt.Sprintf("%v raw=%dmm filtered=%dmm err=%.1f cmd=%s",
		s.State, s.RawMM, s.FilteredMM, s.Error, cmd)
}
