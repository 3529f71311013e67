package hardware

import (
	"context"
	"sync"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/avoider"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/motor"
)

// Interface is everything the controller needs from the robot.  Implementations
// are the real Hardware and the simulated Dummy.
type Interface interface {
	// Start kicks off any background refresh loops; they call wg.Done when ctx
	// is cancelled.
	Start(ctx context.Context, wg *sync.WaitGroup)

	DistanceSensor() avoider.RangeSensor
	Motor() motor.Actuator
	// StatusSinks returns the hardware status outputs (display, LED, speaker)
	// that were successfully initialised.
	StatusSinks() []avoider.StatusSink

	// Shutdown stops the motor and releases the devices.
	Shutdown()
}
