package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/devices/ssd1306"
	"periph.io/x/periph/host"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/avoider"
	"github.com/tigerbot-team/tigerbot/avoider/pkg/screen"
)

type fixedVoltage float64

func (v fixedVoltage) BusVoltage() (float64, error) { return float64(v), nil }

// Reads "<STATE> <raw mm> <filtered mm>" lines from stdin and shows each one.
func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{TimeFormat: time.TimeOnly})))

	if _, err := host.Init(); err != nil {
		slog.Error("Failed to init periph", "err", err)
		os.Exit(1)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		slog.Error("Failed to open I2C bus", "err", err)
		os.Exit(1)
	}
	defer bus.Close()
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		slog.Error("Failed to open screen", "err", err)
		os.Exit(1)
	}

	s := screen.New(dev, fixedVoltage(7.8))
	if err := s.Refresh(); err != nil {
		slog.Error("Screen failure", "err", err)
		os.Exit(1)
	}

	cfg := avoider.DefaultConfig()
	states := map[string]avoider.State{"IDLE": avoider.Idle, "FORWARD": avoider.Forward, "AVOID": avoider.Avoid}
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			slog.Info("Failed to read stdin", "err", err)
			return
		}
		var name string
		var raw, filtered int
		if _, err := fmt.Sscan(strings.TrimSpace(line), &name, &raw, &filtered); err != nil {
			fmt.Println("usage: <IDLE|FORWARD|AVOID> <raw mm> <filtered mm>")
			continue
		}
		state, ok := states[strings.ToUpper(name)]
		if !ok {
			fmt.Println("unknown state", name)
			continue
		}
		s.Publish(avoider.Snapshot{
			CaptureTime: time.Now(),
			RawMM:       raw,
			FilteredMM:  filtered,
			Error:       cfg.PID.Setpoint - float64(filtered),
			State:       state,
		})
		if err := s.Refresh(); err != nil {
			slog.Error("Screen failure", "err", err)
			return
		}
	}
}
