package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/filter"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/tofsensor"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{TimeFormat: time.TimeOnly})))

	dev := os.Getenv("TOF_DEVICE")
	if dev == "" {
		dev = "/dev/i2c-1"
	}
	tof, err := tofsensor.New(dev, tofsensor.DefaultAddr, tofsensor.DefaultTimeout)
	if err != nil {
		slog.Error("Failed to open sensor", "device", dev, "err", err)
		os.Exit(1)
	}
	defer func() {
		_ = tof.Close()
	}()

	err = tof.StartContinuous()
	if err != nil {
		slog.Error("Failed to start continuous measurements", "err", err)
		os.Exit(1)
	}

	avg := filter.NewMovingAverage(5)
	for {
		mm, err := tof.ReadRange()
		if err != nil {
			slog.Warn("Read failed", "err", err)
			continue
		}
		slog.Info("Range", "rawMM", mm, "filteredMM", avg.Push(mm))
	}
}
