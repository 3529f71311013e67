package avoider

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultiSinkFansOut(t *testing.T) {
	var a, b []Snapshot
	m := MultiSink{
		SinkFunc(func(s Snapshot) { a = append(a, s) }),
		SinkFunc(func(s Snapshot) { b = append(b, s) }),
	}
	m.Publish(Snapshot{RawMM: 1})
	m.Publish(Snapshot{RawMM: 2})
	require.Equal(t, a, b)
	require.Len(t, a, 2)
}

func TestLogSinkLogsStateChangesAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := &LogSink{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	l.Publish(Snapshot{State: Idle})
	l.Publish(Snapshot{State: Idle})
	l.Publish(Snapshot{State: Forward})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "state=IDLE")
	require.Contains(t, lines[1], "state=FORWARD")
}
