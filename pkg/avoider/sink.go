package avoider

import (
	"log/slog"
)

// MultiSink fans each snapshot out to every sink in order.
type MultiSink []StatusSink

func (m MultiSink) Publish(s Snapshot) {
	for _, sink := range m {
		sink.Publish(s)
	}
}

// SinkFunc adapts a function to a StatusSink.
type SinkFunc func(s Snapshot)

func (f SinkFunc) Publish(s Snapshot) {
	f(s)
}

// LogSink logs every snapshot at debug level, and state changes at info.
type LogSink struct {
	Logger *slog.Logger

	lastState State
	seen      bool
}

func (l *LogSink) Publish(s Snapshot) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !l.seen || s.State != l.lastState {
		logger.Info("Status", "state", s.State, "rawMM", s.RawMM, "filteredMM", s.FilteredMM, "error", s.Error)
		l.lastState, l.seen = s.State, true
		return
	}
	logger.Debug("Status", "snapshot", s)
}

var (
	_ StatusSink = MultiSink(nil)
	_ StatusSink = SinkFunc(nil)
	_ StatusSink = (*LogSink)(nil)
)
