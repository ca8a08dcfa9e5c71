package api

import (
	"net/http"
	"time"

	"github.com/ezshield/logrelay/app"
	"github.com/ezshield/logrelay/http/api"

	"github.com/labstack/echo/v4"
)

type AboutConfig struct {
	ID        string
	CreatedAt time.Time
	BaseURL   string
	Proxy     func() string // Returns the current proxy, optional
	Storage   string        // Type of the filesystem of the process directory
}

// The AboutHandler type provides handler functions for retrieving details
// about the relay and the build infos.
type AboutHandler struct {
	config AboutConfig
}

// NewAbout returns a new About type
func NewAbout(config AboutConfig) *AboutHandler {
	return &AboutHandler{
		config: config,
	}
}

// About returns the relay details and build infos
// @Summary Relay details and build infos
// @ID about
// @Produce json
// @Success 200 {object} api.About
// @Router /api [get]
func (p *AboutHandler) About(c echo.Context) error {
	proxy := ""
	if p.config.Proxy != nil {
		proxy = p.config.Proxy()
	}

	about := api.About{
		App:       app.Name,
		ID:        p.config.ID,
		CreatedAt: p.config.CreatedAt.Format(time.RFC3339),
		Uptime:    uint64(time.Since(p.config.CreatedAt).Seconds()),
		BaseURL:   p.config.BaseURL,
		Proxy:     proxy,
		Storage:   p.config.Storage,
		Version: api.AboutVersion{
			Number:   app.Version.String(),
			Commit:   app.Commit,
			Branch:   app.Branch,
			Build:    app.Build,
			Arch:     app.Arch,
			Compiler: app.Compiler,
		},
	}

	return c.JSON(http.StatusOK, about)
}
