package api

import (
	"github.com/ezshield/logrelay/event"
	"github.com/ezshield/logrelay/log"
)

// logEvents writes the relay events to the logger until the channel is closed.
func logEvents(events <-chan event.Event, logger log.Logger) {
	for e := range events {
		re, ok := e.(*event.RelayEvent)
		if !ok {
			continue
		}

		l := logger.WithField("event", string(re.Kind))

		if len(re.CycleID) != 0 {
			l = l.WithField("cycle", re.CycleID)
		}

		if len(re.File) != 0 {
			l = l.WithField("file", re.File)
		}

		if len(re.Data) != 0 {
			l = l.WithFields(log.Fields(re.Data))
		}

		if re.Err != nil {
			l = l.WithError(re.Err)
		}

		switch re.Level {
		case "error":
			l = l.Error()
		case "warn":
			l = l.Warn()
		case "info":
			l = l.Info()
		default:
			l = l.Debug()
		}

		l.Log("%s", re.Message)
	}
}
