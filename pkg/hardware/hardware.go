package hardware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/devices/ssd1306"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/avoider"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/ina219"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/indicator"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/l298n"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/motor"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/mux"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/pca9685"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/screen"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/sound"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/tofsensor"
)

var ErrInitFailed = errors.New("hardware init failed")

type Hardware struct {
	sensor avoider.RangeSensor
	motor  motor.Actuator

	screen       *screen.Screen
	led          *indicator.LED
	announcer    *sound.Announcer
	soundsToPlay chan<- string

	// closers are released in reverse order on Shutdown.
	closers []io.Closer
}

var _ Interface = (*Hardware)(nil)

// New brings up the robot's devices.  The motor driver and distance sensor are
// required; the display, power monitor, LED and speaker are best-effort and are
// skipped with a warning if they fail.
func New(cfg avoider.Config) (_ *Hardware, err error) {
	hw := cfg.Hardware
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: periph host: %w", ErrInitFailed, err)
	}

	h := &Hardware{}
	defer func() {
		if err != nil {
			h.closeAll()
		}
	}()

	h.motor, err = h.openMotor(hw)
	if err != nil {
		return nil, fmt.Errorf("%w: motor driver: %w", ErrInitFailed, err)
	}
	// Make sure we start stationary whatever state the pins were left in.
	h.motor.Stop()

	h.sensor, err = h.openSensor(hw, cfg.SensorTimeout())
	if err != nil {
		return nil, fmt.Errorf("%w: distance sensor: %w", ErrInitFailed, err)
	}

	var battery screen.VoltageSource
	if hw.INA219Device != "" {
		if pm, err := h.openPowerMonitor(hw); err != nil {
			slog.Warn("Failed to open power sensor; ignoring!", "err", err)
		} else {
			battery = pm
		}
	}

	if hw.Display {
		if s, err := h.openScreen(hw, battery); err != nil {
			slog.Warn("Failed to open screen; ignoring!", "err", err)
		} else {
			h.screen = s
		}
	}

	if hw.IndicatorPin != "" {
		if pin, err := l298n.LookupPin(hw.IndicatorPin); err != nil {
			slog.Warn("Failed to find indicator pin; ignoring!", "err", err)
		} else {
			h.led = indicator.New(pin)
		}
	}

	if len(hw.StateSounds) > 0 {
		h.soundsToPlay = sound.InitSound()
		h.announcer = sound.NewAnnouncer(h.soundsToPlay, hw.StateSounds)
	}

	slog.Info("Hardware initialised",
		"screen", h.screen != nil, "indicator", h.led != nil, "sound", h.announcer != nil)
	return h, nil
}

func (h *Hardware) openMotor(hw avoider.HardwareConfig) (motor.Actuator, error) {
	var pca *pca9685.PCA9685
	if hw.PCA9685Device != "" {
		var err error
		pca, err = pca9685.New(hw.PCA9685Device, pca9685.DefaultAddr)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, pca)
		if err := pca.Configure(hw.PWMFrequencyHz); err != nil {
			return nil, err
		}
	}

	channelA, err := openChannel("A", hw.MotorA, pca, hw.PWMFrequencyHz)
	if err != nil {
		return nil, err
	}
	if !hw.MotorB.IsSet() {
		return channelA, nil
	}
	channelB, err := openChannel("B", hw.MotorB, pca, hw.PWMFrequencyHz)
	if err != nil {
		return nil, err
	}
	return motor.Tandem{channelA, channelB}, nil
}

func openChannel(name string, c avoider.L298NChannelConfig, pca *pca9685.PCA9685, freqHz int) (*l298n.Channel, error) {
	if !c.IsSet() {
		return nil, fmt.Errorf("motor %s: enable, in1 and in2 pins are all required", name)
	}
	var enable l298n.SpeedOutput
	if pca != nil {
		n, err := strconv.Atoi(c.EnablePin)
		if err != nil || n < 0 || n >= pca9685.NumChannels {
			return nil, fmt.Errorf("motor %s: enable_pin %q is not a PCA9685 channel", name, c.EnablePin)
		}
		enable = pca.Channel(n)
	} else {
		pin, err := l298n.LookupPin(c.EnablePin)
		if err != nil {
			return nil, fmt.Errorf("motor %s: %w", name, err)
		}
		enable = &l298n.PWMPin{Pin: pin, Frequency: physic.Frequency(freqHz) * physic.Hertz}
	}
	in1, err := l298n.LookupPin(c.In1Pin)
	if err != nil {
		return nil, fmt.Errorf("motor %s: %w", name, err)
	}
	in2, err := l298n.LookupPin(c.In2Pin)
	if err != nil {
		return nil, fmt.Errorf("motor %s: %w", name, err)
	}
	return l298n.New(name, enable, in1, in2), nil
}

func (h *Hardware) openSensor(hw avoider.HardwareConfig, timeout time.Duration) (avoider.RangeSensor, error) {
	var mx *mux.Mux
	if hw.SensorMuxPort >= 0 {
		var err error
		mx, err = mux.New(hw.SensorDevice, mux.DefaultAddr)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, mx)
		if err := mx.SelectSinglePort(hw.SensorMuxPort); err != nil {
			return nil, err
		}
	}

	tof, err := tofsensor.New(hw.SensorDevice, tofsensor.DefaultAddr, timeout)
	if err != nil {
		return nil, err
	}
	h.closers = append(h.closers, tof)
	if err := tof.StartContinuous(); err != nil {
		return nil, err
	}

	if mx == nil {
		return tof, nil
	}
	return &muxedSensor{mux: mx, port: hw.SensorMuxPort, tof: tof}, nil
}

func (h *Hardware) openPowerMonitor(hw avoider.HardwareConfig) (*ina219.INA219, error) {
	pm, err := ina219.NewI2C(hw.INA219Device, hw.INA219Addr)
	if err != nil {
		return nil, err
	}
	if err := pm.Configure(hw.ShuntOhms, hw.MaxCurrentA); err != nil {
		_ = pm.Close()
		return nil, err
	}
	h.closers = append(h.closers, pm)
	return pm, nil
}

func (h *Hardware) openScreen(hw avoider.HardwareConfig, battery screen.VoltageSource) (*screen.Screen, error) {
	bus, err := i2creg.Open(hw.I2CBus)
	if err != nil {
		return nil, err
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	h.closers = append(h.closers, bus)
	return screen.New(dev, battery), nil
}

func (h *Hardware) Start(ctx context.Context, wg *sync.WaitGroup) {
	if h.screen != nil {
		wg.Add(1)
		go h.screen.Loop(ctx, wg)
	}
}

func (h *Hardware) DistanceSensor() avoider.RangeSensor {
	return h.sensor
}

func (h *Hardware) Motor() motor.Actuator {
	return h.motor
}

func (h *Hardware) StatusSinks() []avoider.StatusSink {
	var sinks []avoider.StatusSink
	if h.screen != nil {
		sinks = append(sinks, h.screen)
	}
	if h.led != nil {
		sinks = append(sinks, h.led)
	}
	if h.announcer != nil {
		sinks = append(sinks, h.announcer)
	}
	return sinks
}

func (h *Hardware) Shutdown() {
	slog.Info("HW: Shutting down")
	if h.motor != nil {
		h.motor.Stop()
	}
	if h.led != nil {
		h.led.Off()
	}
	if h.soundsToPlay != nil {
		close(h.soundsToPlay)
		h.soundsToPlay = nil
	}
	h.closeAll()
}

func (h *Hardware) closeAll() {
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			slog.Warn("Failed to close device", "err", err)
		}
	}
	h.closers = nil
}
