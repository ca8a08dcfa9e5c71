package api

import (
	"net/http"

	"github.com/ezshield/logrelay/config/vars"
	"github.com/ezshield/logrelay/http/api"

	"github.com/labstack/echo/v4"
)

// The ConfigHandler type provides a handler function for reading the
// configuration.
type ConfigHandler struct {
	variables func() []vars.Variable
}

// NewConfig returns a new Config type. The variables must not contain any
// secrets in plain text.
func NewConfig(variables func() []vars.Variable) *ConfigHandler {
	return &ConfigHandler{
		variables: variables,
	}
}

// Get returns all configuration values
// @Summary Configuration values
// @ID config-get
// @Produce json
// @Success 200 {array} api.ConfigVariable
// @Router /api/v1/config [get]
func (h *ConfigHandler) Get(c echo.Context) error {
	list := []api.ConfigVariable{}

	for _, v := range h.variables() {
		cv := api.ConfigVariable{}
		cv.Unmarshal(v)

		list = append(list, cv)
	}

	return c.JSON(http.StatusOK, list)
}
