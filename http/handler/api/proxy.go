package api

import (
	"net/http"

	"github.com/ezshield/logrelay/fetch"
	"github.com/ezshield/logrelay/http/api"
	"github.com/ezshield/logrelay/http/handler/util"

	"github.com/labstack/echo/v4"
)

// The ProxyHandler type provides handler functions for switching the
// forward proxy of the fetch client.
type ProxyHandler struct {
	client fetch.Client
}

type proxyRequest struct {
	URL string `json:"url" validate:"omitempty,url"`
}

func NewProxy(client fetch.Client) *ProxyHandler {
	return &ProxyHandler{
		client: client,
	}
}

// Get returns the current proxy
// @Summary Current forward proxy
// @ID proxy-get
// @Produce json
// @Success 200 {object} proxyRequest
// @Router /api/v1/proxy [get]
func (h *ProxyHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, proxyRequest{
		URL: h.client.Proxy(),
	})
}

// Set replaces the proxy. An empty URL disables the proxy.
// @Summary Switch the forward proxy
// @ID proxy-set
// @Accept json
// @Produce json
// @Success 200 {object} proxyRequest
// @Failure 400 {object} api.Error
// @Router /api/v1/proxy [put]
func (h *ProxyHandler) Set(c echo.Context) error {
	req := proxyRequest{}

	if err := util.ShouldBindJSON(c, &req, false); err != nil {
		return api.Err(http.StatusBadRequest, "", "invalid JSON: %s", err.Error())
	}

	if err := h.client.SetProxy(req.URL); err != nil {
		return api.Err(http.StatusBadRequest, "", "invalid proxy: %s", err.Error())
	}

	return c.JSON(http.StatusOK, proxyRequest{
		URL: h.client.Proxy(),
	})
}
