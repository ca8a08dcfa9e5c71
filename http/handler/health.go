package handler

import (
	"net/http"

	"github.com/ezshield/logrelay/http/api"

	"github.com/labstack/echo/v4"
)

// The HealthHandler type provides handlers for liveliness and readiness checks
type HealthHandler struct {
	ready func() error
}

// NewHealth returns a new Health type. ready reports why the relay is not
// ready, it may be nil.
func NewHealth(ready func() error) *HealthHandler {
	return &HealthHandler{
		ready: ready,
	}
}

// Ping returns pong
// @Summary Liveliness check
// @ID ping
// @Produce text/plain
// @Success 200 {string} string "pong"
// @Router /ping [get]
func (h *HealthHandler) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

// Ready returns whether the last cycle succeeded
// @Summary Readiness check
// @ID ready
// @Produce text/plain
// @Success 200 {string} string "ok"
// @Failure 503 {object} api.Error
// @Router /ready [get]
func (h *HealthHandler) Ready(c echo.Context) error {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			return api.ErrFrom(http.StatusServiceUnavailable, err)
		}
	}

	return c.String(http.StatusOK, "ok")
}
