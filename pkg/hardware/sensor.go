package hardware

import (
	"fmt"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/mux"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/tofsensor"
)

// muxedSensor re-selects the sensor's mux port before every read, in case
// something else on the bus has switched it.
type muxedSensor struct {
	mux  mux.Interface
	port int
	tof  tofsensor.Interface
}

func (s *muxedSensor) ReadRange() (int, error) {
	if err := s.mux.SelectSinglePort(s.port); err != nil {
		return 0, fmt.Errorf("selecting mux port %d: %w", s.port, err)
	}
	return s.tof.ReadRange()
}
