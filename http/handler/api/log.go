package api

import (
	"net/http"
	"strings"

	"github.com/ezshield/logrelay/http/handler/util"
	"github.com/ezshield/logrelay/log"

	"github.com/labstack/echo/v4"
)

// The LogHandler type provides handler functions for reading the application log
type LogHandler struct {
	buffer log.BufferWriter
}

// NewLog return a new Log type. You have to provide log buffer.
func NewLog(buffer log.BufferWriter) *LogHandler {
	l := &LogHandler{
		buffer: buffer,
	}

	if l.buffer == nil {
		l.buffer = log.NewBufferWriter(log.Lsilent, 1)
	}

	return l
}

// Log returns the last log lines of the relay
// @Summary Application log
// @Description Get the last log lines of the relay
// @ID log
// @Param format query string false "Format of the list of log events (*console, raw)"
// @Produce json
// @Success 200 {array} string "application log"
// @Router /api/v1/log [get]
func (p *LogHandler) Log(c echo.Context) error {
	format := util.DefaultQuery(c, "format", "console")

	events := p.buffer.Events()

	if format == "raw" {
		lines := make([]map[string]interface{}, len(events))

		for i, e := range events {
			line := map[string]interface{}{}

			for k, v := range e.Data {
				line[k] = v
			}

			line["ts"] = e.Time
			line["level"] = e.Level.String()
			line["component"] = e.Component

			if len(e.Caller) != 0 {
				line["caller"] = e.Caller
			}

			if len(e.Message) != 0 {
				line["message"] = e.Message
			}

			lines[i] = line
		}

		return c.JSON(http.StatusOK, lines)
	}

	formatter := log.NewConsoleFormatter(false)

	lines := make([]string, len(events))

	for i, e := range events {
		lines[i] = strings.TrimSpace(formatter.String(e))
	}

	return c.JSON(http.StatusOK, lines)
}
