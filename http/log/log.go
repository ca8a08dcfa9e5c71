// Package log forwards the messages of the echo logger to a log.Logger
package log

import (
	"strings"

	"github.com/ezshield/logrelay/encoding/json"
	"github.com/ezshield/logrelay/log"
)

type logwrapper struct {
	logger log.Logger
}

type logentry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// NewWrapper returns a writer for echo.Logger.SetOutput. Every line of a
// message becomes a separate log event.
func NewWrapper(logger log.Logger) *logwrapper {
	return &logwrapper{
		logger: logger,
	}
}

func (b *logwrapper) Write(p []byte) (int, error) {
	entry := logentry{}
	if err := json.Unmarshal(p, &entry); err != nil || len(entry.Message) == 0 {
		b.logger.Info().Log("%s", strings.TrimSpace(string(p)))
		return len(p), nil
	}

	logger := b.logger.Info()

	switch strings.ToUpper(entry.Level) {
	case "DEBUG":
		logger = b.logger.Debug()
	case "WARN":
		logger = b.logger.Warn()
	case "ERROR":
		logger = b.logger.Error()
	}

	for _, line := range strings.Split(entry.Message, "\n") {
		logger.Log("%s", line)
	}

	return len(p), nil
}
