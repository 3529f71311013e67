// Package screen shows the controller's status on a 128x64 SSD1306 OLED.
package screen

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/avoider"
)

const (
	Width  = 128
	Height = 64

	RefreshInterval = 500 * time.Millisecond
)

// Drawer is the part of the display driver that we use; *ssd1306.Dev satisfies it.
type Drawer interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// VoltageSource reports the battery bus voltage.
type VoltageSource interface {
	BusVoltage() (float64, error)
}

// Screen is a StatusSink that keeps the latest snapshot and redraws it from Loop.
type Screen struct {
	display Drawer
	battery VoltageSource

	lock     sync.Mutex
	snapshot avoider.Snapshot
	have     bool
}

// New returns a Screen drawing to display.  battery may be nil.
func New(display Drawer, battery VoltageSource) *Screen {
	return &Screen{display: display, battery: battery}
}

func (s *Screen) Publish(snap avoider.Snapshot) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.snapshot = snap
	s.have = true
}

func (s *Screen) latest() (avoider.Snapshot, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.snapshot, s.have
}

// Loop redraws the display until the context is cancelled, then blanks it.
func (s *Screen) Loop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			blank := image.NewGray(image.Rect(0, 0, Width, Height))
			_ = s.display.Draw(blank.Bounds(), blank, image.Point{})
			return
		case <-ticker.C:
		}
		if err := s.Refresh(); err != nil {
			slog.Error("Screen failure, giving up", "err", err)
			return
		}
	}
}

// Refresh renders the latest snapshot and pushes it to the display.
func (s *Screen) Refresh() error {
	img := s.Render()
	return s.display.Draw(img.Bounds(), img, image.Point{})
}

// Render draws the latest snapshot without touching the display.
func (s *Screen) Render() image.Image {
	snap, ok := s.latest()
	voltage := -1.0
	if s.battery != nil {
		if v, err := s.battery.BusVoltage(); err == nil {
			voltage = v
		} else {
			slog.Debug("Failed to read battery voltage", "err", err)
		}
	}
	return render(snap, ok, voltage)
}

func render(snap avoider.Snapshot, ok bool, voltage float64) image.Image {
	dc := gg.NewContext(Width, Height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)

	if !ok {
		dc.DrawString("Waiting...", 2, 12)
	} else {
		dc.DrawString(fmt.Sprintf("Dist: %dmm", snap.RawMM), 2, 12)
		dc.DrawString(fmt.Sprintf("Filt: %dmm", snap.FilteredMM), 2, 26)
		dc.DrawString(fmt.Sprintf("Err: %.0f", snap.Error), 2, 40)
		dc.DrawString(snap.State.String(), 2, 54)
		if snap.State == avoider.Avoid {
			dc.Push()
			dc.Translate(80, 48)
			DrawWarning(dc)
			dc.Pop()
		}
	}

	if voltage >= 0 {
		dc.Push()
		dc.Translate(96, 0)
		drawPowerBar(dc, voltage)
		dc.Pop()
	}
	return dc.Image()
}

const (
	minCellVoltage = 3
	maxCellVoltage = 4.2
)

// Charge estimates the fraction of charge left in a 2- or 4-cell LiPo pack.
func Charge(voltage float64) float64 {
	var cellVoltage float64
	if voltage > 9 {
		// assume the 4-cell pack
		cellVoltage = voltage / 4
	} else {
		// assume the 2-cell pack
		cellVoltage = voltage / 2
	}
	charge := (cellVoltage - minCellVoltage) / (maxCellVoltage - minCellVoltage)
	switch {
	case charge < 0:
		return 0
	case charge > 1:
		return 1
	}
	return charge
}

func drawPowerBar(dc *gg.Context, voltage float64) {
	charge := Charge(voltage)

	dc.DrawRectangle(0, 40, 28, 6)
	for n := 2; n < 9; n++ {
		if charge >= (float64(n) / 9) {
			dc.DrawRectangle(2, 42-float64(n)*4, 24, 2)
		}
	}
	dc.Fill()
	if charge < 0.1 {
		dc.DrawString("LOW", 2, 58)
		return
	}
	dc.DrawString(fmt.Sprintf("%.1fv", voltage), 0, 58)
}

func DrawWarning(dc *gg.Context) {
	dc.DrawRegularPolygon(3, 0, 0, 10, 0)
	dc.Fill()
	dc.SetRGB(0, 0, 0)
	dc.DrawString("!", -2, 4)
	dc.SetRGB(1, 1, 1)
}
