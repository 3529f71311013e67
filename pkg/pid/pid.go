// Package pid implements a fixed-timestep PID regulator.
//
// There is no anti-windup: the integral accumulates without bound, and the
// derivative is taken against whatever error the previous Step saw, however
// long ago that was.  Callers own the cadence; the controller never looks at
// the clock.
package pid

type Controller struct {
	Setpoint   float64
	Kp, Ki, Kd float64
	// DT is the fixed interval between Step calls, in seconds.
	DT         float64

	integral      float64
	previousError float64
}

func New(setpoint, kp, ki, kd, dt float64) *Controller {
	return &Controller{
		Setpoint: setpoint,
		Kp:       kp,
		Ki:       ki,
		Kd:       kd,
		DT:       dt,
	}
}

// Step advances the regulator by one DT and returns the (unbounded) correction.
func (c *Controller) Step(measured float64) float64 {
	err := c.Setpoint - measured
	c.integral += err * c.DT
	derivative := (err - c.previousError) / c.DT
	c.previousError = err

	return c.Kp*err + c.Ki*c.integral + c.Kd*derivative
}

func (c *Controller) Integral() float64 {
	return c.integral
}

func (c *Controller) PreviousError() float64 {
	return c.previousError
}

// Reset clears the accumulated integral and error history.
func (c *Controller) Reset() {
	c.integral = 0
	c.previousError = 0
}
