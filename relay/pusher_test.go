package relay

import (
	"context"
	"strings"
	"testing"

	"github.com/ezshield/logrelay/log"
	"github.com/ezshield/logrelay/logfile"

	"github.com/stretchr/testify/require"
)

func TestLogFileLines(t *testing.T) {
	f := &LogFile{
		Body: []byte("one\r\n\ntwo\nthree"),
	}

	lines := []string{}

	f.Lines(func(line string) bool {
		lines = append(lines, line)
		return true
	})

	require.Equal(t, []string{"one", "two", "three"}, lines)

	lines = []string{}

	f.Lines(func(line string) bool {
		lines = append(lines, line)
		return false
	})

	require.Equal(t, []string{"one"}, lines)
}

func TestNopPusher(t *testing.T) {
	err := NewNopPusher().Push(context.Background(), &LogFile{})
	require.NoError(t, err)
}

func TestLogPusher(t *testing.T) {
	buf := log.NewBufferWriter(log.Linfo, 10)

	p := NewLogPusher(log.New("Target").WithOutput(buf))

	err := p.Push(context.Background(), &LogFile{
		Name:   "a.log",
		Header: logfile.ParseHeader("format:CEF\naccountId:405057"),
		Body:   []byte("CEF:0|a\nCEF:0|b\n"),
	})
	require.NoError(t, err)

	events := buf.Events()
	require.Len(t, events, 2)
	require.Equal(t, "CEF:0|a", events[0].Message)
	require.Equal(t, "CEF:0|b", events[1].Message)
	require.Equal(t, "Target", events[0].Component)
	require.Equal(t, "a.log", events[0].Data["file"])
	require.Equal(t, "CEF", events[0].Data["format"])
	require.Equal(t, "405057", events[0].Data["account_id"])
}

func TestLogPusherCanceled(t *testing.T) {
	buf := log.NewBufferWriter(log.Linfo, 10)

	p := NewLogPusher(log.New("Target").WithOutput(buf))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Push(ctx, &LogFile{Body: []byte("a\nb\n")})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, buf.Events())
}

func TestLogPusherLongLine(t *testing.T) {
	buf := log.NewBufferWriter(log.Linfo, 10)

	p := NewLogPusher(log.New("Target").WithOutput(buf))

	long := strings.Repeat("x", 2*1024*1024)

	err := p.Push(context.Background(), &LogFile{
		Name: "a.log",
		Body: []byte("first\n" + long + "\nlast\n"),
	})
	require.NoError(t, err)

	events := buf.Events()
	require.Len(t, events, 3)
	require.Equal(t, "first", events[0].Message)
	require.Equal(t, long, events[1].Message)
	require.Equal(t, "last", events[2].Message)
}
