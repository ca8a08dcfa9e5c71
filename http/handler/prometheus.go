package handler

import (
	"net/http"

	"github.com/ezshield/logrelay/prometheus"

	"github.com/labstack/echo/v4"
)

// The PrometheusHandler type provides a handler function for scraping the
// metrics of the relay
type PrometheusHandler struct {
	handler http.Handler
}

// NewPrometheus returns a new Prometheus type that serves the metrics of reader
func NewPrometheus(reader prometheus.Reader) *PrometheusHandler {
	return &PrometheusHandler{
		handler: reader.HTTPHandler(),
	}
}

// Metrics serves the relay state, the event counters and the filesystem usage
// @Summary Prometheus metrics
// @ID metrics
// @Produce text/plain
// @Success 200 {string} string
// @Router /metrics [get]
func (m *PrometheusHandler) Metrics(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")

	m.handler.ServeHTTP(c.Response(), c.Request())

	return nil
}
