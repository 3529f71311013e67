// Package sound plays short WAV clips through the speaker when the controller
// changes state.
package sound

import (
	"log/slog"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"

	"github.com/tigerbot-team/tigerbot/avoider/pkg/avoider"
)

// InitSound starts the player goroutine; it plays each file name sent on the
// returned channel, cutting off whatever was playing.  Closing the channel stops it.
func InitSound() chan<- string {
	soundsToPlay := make(chan string, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Sound player panicked", "panic", r)
			}
			for s := range soundsToPlay {
				slog.Warn("Unable to play", "sound", s)
			}
		}()
		sampleRate := beep.SampleRate(44100)
		err := speaker.Init(sampleRate, sampleRate.N(time.Second/5))
		if err != nil {
			slog.Error("Failed to open speaker", "err", err)
			return
		}
		var ctrl *beep.Ctrl
		var s beep.StreamSeekCloser
		for soundToPlay := range soundsToPlay {
			if ctrl != nil {
				speaker.Lock()
				ctrl.Paused = true
				ctrl.Streamer = nil
				speaker.Unlock()
				ctrl = nil
			}
			if s != nil {
				_ = s.Close()
				s = nil
			}

			f, err := os.Open(soundToPlay)
			if err != nil {
				slog.Error("Failed to open sound", "sound", soundToPlay, "err", err)
				continue
			}
			s, _, err = wav.Decode(f)
			if err != nil {
				slog.Error("Failed to decode sound", "sound", soundToPlay, "err", err)
				_ = f.Close()
				continue
			}
			ctrl = &beep.Ctrl{Streamer: s}
			speaker.Play(ctrl)
		}
	}()
	return soundsToPlay
}

// Announcer is a StatusSink that queues the configured clip whenever a new
// state is entered.  If the player is busy the clip is dropped.
type Announcer struct {
	sounds map[avoider.State]string
	player chan<- string

	last avoider.State
	seen bool
}

// NewAnnouncer maps state names ("IDLE", "FORWARD", "AVOID") to WAV files.
func NewAnnouncer(player chan<- string, byName map[string]string) *Announcer {
	sounds := map[avoider.State]string{}
	for _, s := range []avoider.State{avoider.Idle, avoider.Forward, avoider.Avoid} {
		if f, ok := byName[s.String()]; ok {
			sounds[s] = f
		}
	}
	return &Announcer{sounds: sounds, player: player}
}

func (a *Announcer) Publish(snap avoider.Snapshot) {
	if a.seen && snap.State == a.last {
		return
	}
	a.last, a.seen = snap.State, true

	f, ok := a.sounds[snap.State]
	if !ok {
		return
	}
	select {
	case a.player <- f:
	default:
		slog.Debug("Sound player busy, dropping", "sound", f)
	}
}
