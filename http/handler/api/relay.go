package api

import (
	"context"
	"net/http"

	"github.com/ezshield/logrelay/http/api"
	"github.com/ezshield/logrelay/http/handler/util"
	"github.com/ezshield/logrelay/relay"

	"github.com/labstack/echo/v4"
)

// The RelayHandler type provides handler functions for reading the state
// of the relay and for running cycles.
type RelayHandler struct {
	relay          relay.Relay
	pullRetryLimit int
	pushRetryLimit int
}

// NewRelay returns a new Relay type. The retry limits are required for
// deriving the status of the files.
func NewRelay(r relay.Relay, pullRetryLimit, pushRetryLimit int) *RelayHandler {
	return &RelayHandler{
		relay:          r,
		pullRetryLimit: pullRetryLimit,
		pushRetryLimit: pushRetryLimit,
	}
}

// State returns the state of the relay
// @Summary State of the relay
// @Description State of the relay with the progress of all known log files
// @ID relay-state
// @Produce json
// @Param status query string false "Only list files with this status"
// @Success 200 {object} api.State
// @Router /api/v1/state [get]
func (h *RelayHandler) State(c echo.Context) error {
	status := util.DefaultQuery(c, "status", "")

	state := api.State{}
	state.Unmarshal(h.relay.State(), h.pullRetryLimit, h.pushRetryLimit)

	if len(status) != 0 {
		files := []api.FileState{}

		for _, f := range state.Files {
			if f.Status == status {
				files = append(files, f)
			}
		}

		state.Files = files
	}

	return c.JSON(http.StatusOK, state)
}

// File returns the state of a single log file
// @Summary State of a log file
// @ID relay-file
// @Produce json
// @Param name path string true "Name of the log file"
// @Success 200 {object} api.FileState
// @Failure 404 {object} api.Error
// @Router /api/v1/state/{name} [get]
func (h *RelayHandler) File(c echo.Context) error {
	name := util.PathParam(c, "name")

	f, ok := h.relay.File(name)
	if !ok {
		return api.Err(http.StatusNotFound, "", "unknown log file: %s", name)
	}

	state := api.FileState{}
	state.Unmarshal(name, &f, h.pullRetryLimit, h.pushRetryLimit)

	return c.JSON(http.StatusOK, state)
}

// Cycle runs a cycle and returns its report
// @Summary Run a cycle
// @Description Run a cycle now. Waits for a running cycle to finish first. The cycle runs to completion even if the client goes away.
// @ID relay-cycle
// @Produce json
// @Success 200 {object} api.Report
// @Router /api/v1/cycle [post]
func (h *RelayHandler) Cycle(c echo.Context) error {
	report := api.Report{}
	report.Unmarshal(h.relay.RunCycle(context.WithoutCancel(c.Request().Context())))

	return c.JSON(http.StatusOK, report)
}
