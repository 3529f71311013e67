package avoider

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/motor"
)

var ErrInvalidConfig = errors.New("invalid config")

type PIDConfig struct {
	Setpoint  float64 `yaml:"setpoint"`
	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Kd        float64 `yaml:"kd"`
	DTSeconds float64 `yaml:"dt_seconds"`

	// ResetOnForward clears the integral and error history every time FORWARD
	// is entered.  Off by default: history carries across AVOID manoeuvres.
	ResetOnForward bool `yaml:"reset_on_forward"`
}

type HardwareConfig struct {
	// I2CBus names the periph bus for the display; "" picks the first one.
	I2CBus  string `yaml:"i2c_bus"`
	Display bool   `yaml:"display"`

	SensorDevice string `yaml:"sensor_device"`
	// SensorMuxPort selects a TCA9548A port before talking to the sensor; -1
	// means the sensor is wired directly.
	SensorMuxPort   int `yaml:"sensor_mux_port"`
	SensorTimeoutMS int `yaml:"sensor_timeout_ms"`

	// Motor A is always driven; motor B is driven in tandem when its pins are set.
	MotorA L298NChannelConfig `yaml:"motor_a"`
	MotorB L298NChannelConfig `yaml:"motor_b"`

	// PCA9685Device, when set, routes the enable pins through a PCA9685 and the
	// EnablePin fields are read as its channel numbers.
	PCA9685Device  string `yaml:"pca9685_device"`
	PWMFrequencyHz int    `yaml:"pwm_frequency_hz"`

	INA219Device string  `yaml:"ina219_device"`
	INA219Addr   int     `yaml:"ina219_addr"`
	ShuntOhms    float64 `yaml:"shunt_ohms"`
	MaxCurrentA  float64 `yaml:"max_current_a"`

	IndicatorPin string `yaml:"indicator_pin"`

	// StateSounds maps a state name (IDLE, FORWARD, AVOID) to a WAV file that is
	// played when the state is entered.
	StateSounds map[string]string `yaml:"state_sounds,omitempty"`
}

type L298NChannelConfig struct {
	EnablePin string `yaml:"enable_pin"`
	In1Pin    string `yaml:"in1_pin"`
	In2Pin    string `yaml:"in2_pin"`
}

func (c L298NChannelConfig) IsSet() bool {
	return c.EnablePin != "" && c.In1Pin != "" && c.In2Pin != ""
}

type Config struct {
	LogLevel string `yaml:"log_level"`

	PID PIDConfig `yaml:"pid"`

	AvoidThresholdMM int `yaml:"avoid_threshold_mm"`

	// AvoidSpeed is the magnitude of the single BACKWARD command issued when
	// an obstacle is detected.
	AvoidSpeed      int `yaml:"avoid_speed"`
	IdleDurationMS  int `yaml:"idle_duration_ms"`
	AvoidDurationMS int `yaml:"avoid_duration_ms"`
	FilterDepth     int `yaml:"filter_depth"`
	CyclePeriodMS   int `yaml:"cycle_period_ms"`

	Hardware HardwareConfig `yaml:"hardware"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		PID: PIDConfig{
			Setpoint:  200,
			Kp:        1.5,
			Ki:        0.2,
			Kd:        0.3,
			DTSeconds: 0.1,
		},
		AvoidThresholdMM: 150,
		AvoidSpeed:       200,
		IdleDurationMS:   3000,
		AvoidDurationMS:  1000,
		FilterDepth:      5,
		CyclePeriodMS:    100,
		Hardware: HardwareConfig{
			I2CBus:        "",
			Display:       true,
			SensorDevice:  "/dev/i2c-1",
			SensorMuxPort: -1,
			MotorA: L298NChannelConfig{
				EnablePin: "GPIO25",
				In1Pin:    "GPIO14",
				In2Pin:    "GPIO18",
			},
			MotorB: L298NChannelConfig{
				EnablePin: "GPIO26",
				In1Pin:    "GPIO12",
				In2Pin:    "GPIO5",
			},
			PWMFrequencyHz:  1000,
			SensorTimeoutMS: 500,
			INA219Addr:      0x41,
			ShuntOhms:       0.1,
			MaxCurrentA:     3.2,
		},
	}
}

func (c Config) IdleDuration() time.Duration {
	return time.Duration(c.IdleDurationMS) * time.Millisecond
}

func (c Config) AvoidDuration() time.Duration {
	return time.Duration(c.AvoidDurationMS) * time.Millisecond
}

func (c Config) CyclePeriod() time.Duration {
	return time.Duration(c.CyclePeriodMS) * time.Millisecond
}

func (c Config) SensorTimeout() time.Duration {
	return time.Duration(c.Hardware.SensorTimeoutMS) * time.Millisecond
}

func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (c Config) Validate() error {
	switch {
	case c.FilterDepth < 1:
		return fmt.Errorf("%w: filter_depth must be at least 1, not %d", ErrInvalidConfig, c.FilterDepth)
	case c.PID.DTSeconds <= 0:
		return fmt.Errorf("%w: pid.dt_seconds must be positive, not %v", ErrInvalidConfig, c.PID.DTSeconds)
	case c.CyclePeriodMS <= 0:
		return fmt.Errorf("%w: cycle_period_ms must be positive, not %d", ErrInvalidConfig, c.CyclePeriodMS)
	case c.IdleDurationMS < 0 || c.AvoidDurationMS < 0:
		return fmt.Errorf("%w: state durations must not be negative", ErrInvalidConfig)
	case c.AvoidSpeed < 0 || c.AvoidSpeed > motor.MaxSpeed:
		return fmt.Errorf("%w: avoid_speed must be in [0, %d], not %d", ErrInvalidConfig, motor.MaxSpeed, c.AvoidSpeed)
	case c.Hardware.SensorMuxPort < -1 || c.Hardware.SensorMuxPort > 7:
		return fmt.Errorf("%w: hardware.sensor_mux_port must be -1 or 0-7, not %d", ErrInvalidConfig, c.Hardware.SensorMuxPort)
	}
	return nil
}

// LoadConfig overlays the YAML file at path onto DefaultConfig.  A missing file
// is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("No config file, using defaults", "path", path)
		return cfg, nil
	} else if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WriteInUse records the effective config so it's easy to see what the robot
// actually ran with.
func (c Config) WriteInUse(path string) error {
	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0666)
}
