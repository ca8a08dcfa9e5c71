// Package log implements a logging middleware
package log

import (
	"net/http"
	"time"

	"github.com/ezshield/logrelay/log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Config struct {
	// Skipper defines a function to skip middleware.
	Skipper middleware.Skipper
	Logger  log.Logger
}

var DefaultConfig = Config{
	Skipper: middleware.DefaultSkipper,
	Logger:  log.New("HTTP"),
}

func New() echo.MiddlewareFunc {
	return NewWithConfig(DefaultConfig)
}

// NewWithConfig returns a middleware for logging HTTP requests. Server errors
// are logged as error, client errors as warning and all others as debug.
// Requests for a single log file carry its name in the "file" field.
func NewWithConfig(config Config) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultConfig.Skipper
	}

	if config.Logger == nil {
		config.Logger = DefaultConfig.Logger
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			start := time.Now()

			req := c.Request()
			res := c.Response()

			path := req.URL.Path
			if raw := req.URL.RawQuery; raw != "" {
				path = path + "?" + raw
			}

			if err := next(c); err != nil {
				c.Error(err)
			}

			fields := log.Fields{
				"client":      c.RealIP(),
				"method":      req.Method,
				"path":        path,
				"proto":       req.Proto,
				"status":      res.Status,
				"status_text": http.StatusText(res.Status),
				"size_bytes":  res.Size,
				"latency_ms":  time.Since(start).Milliseconds(),
				"user_agent":  req.Header.Get("User-Agent"),
			}

			if route := c.Path(); len(route) != 0 {
				fields["route"] = route
			}

			if name := c.Param("name"); len(name) != 0 {
				fields["file"] = name
			}

			logger := config.Logger.WithFields(fields)

			switch {
			case res.Status >= 500:
				logger.Error().Log("")
			case res.Status >= 400:
				logger.Warn().Log("")
			default:
				logger.Debug().Log("")
			}

			return nil
		}
	}
}
