package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/avoider"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/hardware"
)

const defaultConfigFile = "/cfg/avoider.yaml"

func main() {
	logLevel := new(slog.LevelVar)
	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.TimeOnly,
	})))

	slog.Info("---- Avoider ----", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	configFile := os.Getenv("AVOIDER_CONFIG")
	if configFile == "" {
		configFile = defaultConfigFile
	}
	cfg, err := avoider.LoadConfig(configFile)
	if err != nil {
		slog.Error("Failed to load config", "path", configFile, "err", err)
		os.Exit(1)
	}
	logLevel.Set(cfg.SlogLevel())
	inUse := strings.TrimSuffix(configFile, filepath.Ext(configFile)) + "-in-use.yaml"
	if err := cfg.WriteInUse(inUse); err != nil {
		slog.Warn("Failed to write in-use config", "path", inUse, "err", err)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	hw, err := initHardware(cfg)
	if err != nil {
		slog.Error("Failed to initialise hardware", "err", err)
		os.Exit(1)
	}
	defer func() {
		slog.Info("Zeroing motors for shut down")
		hw.Shutdown()
		time.Sleep(100 * time.Millisecond)
	}()

	sinks := avoider.MultiSink{&avoider.LogSink{}}
	sinks = append(sinks, hw.StatusSinks()...)

	controller, err := avoider.New(cfg, hw.DistanceSensor(), hw.Motor(), sinks)
	if err != nil {
		slog.Error("Failed to create controller", "err", err)
		return
	}

	var wg sync.WaitGroup
	hw.Start(ctx, &wg)
	wg.Add(1)
	go controller.Loop(ctx, &wg)

	watchdog := time.NewTicker(5 * time.Second)
	defer watchdog.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Context done, waiting for loops to stop")
			wg.Wait()
			return
		case <-watchdog.C:
			snap, ok := controller.LastSnapshot()
			slog.Debug("Main loop still running", "haveSnapshot", ok, "snapshot", snap, "faults", controller.Faults())
		}
	}
}

func initHardware(cfg avoider.Config) (hardware.Interface, error) {
	if os.Getenv("AVOIDER_DUMMY_HARDWARE") == "true" {
		slog.Info("Using simulated hardware")
		return hardware.NewDummy(), nil
	}
	hw, err := hardware.New(cfg)
	if err == nil {
		return hw, nil
	}
	if errors.Is(err, hardware.ErrInitFailed) && os.Getenv("IGNORE_MISSING_HARDWARE") == "true" {
		slog.Warn("Hardware missing, falling back to simulated hardware", "err", err)
		return hardware.NewDummy(), nil
	}
	return nil, err
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		slog.Info("Signal", "signal", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
