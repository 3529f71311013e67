package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/avoider"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/ina219"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/screen"
)

// Prints the battery readings using the power monitor settings from the config.
func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{TimeFormat: time.TimeOnly})))

	configFile := os.Getenv("AVOIDER_CONFIG")
	if configFile == "" {
		configFile = "/cfg/avoider.yaml"
	}
	cfg, err := avoider.LoadConfig(configFile)
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	hw := cfg.Hardware
	if hw.INA219Device == "" {
		hw.INA219Device = "/dev/i2c-1"
	}

	pm, err := ina219.NewI2C(hw.INA219Device, hw.INA219Addr)
	if err != nil {
		slog.Error("Failed to open ina219", "err", err)
		os.Exit(1)
	}
	defer pm.Close()
	if err := pm.Configure(hw.ShuntOhms, hw.MaxCurrentA); err != nil {
		slog.Error("Failed to configure ina219", "err", err)
		os.Exit(1)
	}

	for range time.NewTicker(500 * time.Millisecond).C {
		r, err := pm.Read()
		if err != nil {
			slog.Warn("Read failed", "err", err)
			continue
		}
		slog.Info("Battery", "volts", r.BusVolts, "amps", r.Amps, "watts", r.Watts, "charge", screen.Charge(r.BusVolts))
	}
}
