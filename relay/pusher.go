package relay

import (
	"bytes"
	"context"

	"github.com/ezshield/logrelay/log"
	"github.com/ezshield/logrelay/logfile"
)

// LogFile is a pulled log file with its decoded body.
type LogFile struct {
	Name   string
	Header *logfile.Header
	Body   []byte
}

// Lines calls fn for each non-empty line of the body. Lines are not limited
// in length. It stops if fn returns false.
func (f *LogFile) Lines(fn func(line string) bool) {
	body := f.Body

	for len(body) != 0 {
		var line []byte

		line, body, _ = bytes.Cut(body, []byte{'\n'})

		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 {
			continue
		}

		if !fn(string(line)) {
			return
		}
	}
}

// Pusher delivers the records of a pulled log file downstream.
type Pusher interface {
	Push(ctx context.Context, file *LogFile) error
}

// PusherFunc is an adapter to allow the use of an ordinary function as
// a Pusher.
type PusherFunc func(ctx context.Context, file *LogFile) error

func (f PusherFunc) Push(ctx context.Context, file *LogFile) error {
	return f(ctx, file)
}

// NewNopPusher returns a pusher that accepts every file without
// delivering it anywhere.
func NewNopPusher() Pusher {
	return PusherFunc(func(ctx context.Context, file *LogFile) error {
		return nil
	})
}

type logPusher struct {
	logger log.Logger
}

// NewLogPusher returns a pusher that writes every line of a file as an
// event to the logger.
func NewLogPusher(logger log.Logger) Pusher {
	p := &logPusher{
		logger: logger,
	}

	if p.logger == nil {
		p.logger = log.New("")
	}

	return p
}

func (p *logPusher) Push(ctx context.Context, file *LogFile) error {
	logger := p.logger.WithField("file", file.Name)

	if file.Header != nil {
		logger = logger.WithFields(log.Fields{
			"format":     file.Header.Format,
			"account_id": file.Header.AccountID,
		})
	}

	var err error

	file.Lines(func(line string) bool {
		if err = ctx.Err(); err != nil {
			return false
		}

		logger.Info().Log("%s", line)

		return true
	})

	return err
}
