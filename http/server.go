// Package http serves the API of the relay
package http

import (
	"net/http"
	"strings"

	"github.com/ezshield/logrelay/config/vars"
	"github.com/ezshield/logrelay/event"
	"github.com/ezshield/logrelay/fetch"
	"github.com/ezshield/logrelay/http/errorhandler"
	"github.com/ezshield/logrelay/http/handler"
	api "github.com/ezshield/logrelay/http/handler/api"
	httplog "github.com/ezshield/logrelay/http/log"
	"github.com/ezshield/logrelay/http/validator"
	"github.com/ezshield/logrelay/io/fs"
	"github.com/ezshield/logrelay/log"
	"github.com/ezshield/logrelay/prometheus"
	"github.com/ezshield/logrelay/relay"

	mwlog "github.com/ezshield/logrelay/http/middleware/log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var ListenAndServe = http.ListenAndServe

type Config struct {
	Logger    log.Logger
	LogBuffer log.BufferWriter

	Relay          relay.Relay
	PullRetryLimit int
	PushRetryLimit int

	// Ready reports why the relay is not ready, optional
	Ready func() error

	// Events is the source for the event stream, optional
	Events *event.PubSub

	// Fetcher allows to switch the proxy at runtime, optional
	Fetcher fetch.Client

	// Filesystem is the process directory, optional
	Filesystem fs.Filesystem

	// Variables returns the configuration values, optional
	Variables func() []vars.Variable

	Prometheus prometheus.Reader
	About      api.AboutConfig

	// ReadOnly disables all endpoints that change the state
	ReadOnly bool
}

type Server interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

type server struct {
	logger log.Logger

	handler struct {
		about      *api.AboutHandler
		prometheus *handler.PrometheusHandler
		health     *handler.HealthHandler
	}

	v1handler struct {
		log    *api.LogHandler
		relay  *api.RelayHandler
		events *api.EventsHandler
		proxy  *api.ProxyHandler
		fs     *api.FSHandler
		config *api.ConfigHandler
	}

	middleware struct {
		log echo.MiddlewareFunc
	}

	router   *echo.Echo
	readOnly bool
}

func NewServer(config Config) (Server, error) {
	s := &server{
		logger:   config.Logger,
		readOnly: config.ReadOnly,
	}

	if s.logger == nil {
		s.logger = log.New("HTTP")
	}

	if config.About.Proxy == nil && config.Fetcher != nil {
		config.About.Proxy = config.Fetcher.Proxy
	}

	if config.About.Storage == "" && config.Filesystem != nil {
		config.About.Storage = config.Filesystem.Type()
	}

	s.handler.about = api.NewAbout(config.About)
	s.handler.health = handler.NewHealth(config.Ready)

	if config.Prometheus != nil {
		s.handler.prometheus = handler.NewPrometheus(config.Prometheus)
	}

	s.v1handler.log = api.NewLog(
		config.LogBuffer,
	)

	if config.Relay != nil {
		s.v1handler.relay = api.NewRelay(
			config.Relay,
			config.PullRetryLimit,
			config.PushRetryLimit,
		)
	}

	if config.Events != nil {
		s.v1handler.events = api.NewEvents(config.Events)
	}

	if config.Fetcher != nil {
		s.v1handler.proxy = api.NewProxy(config.Fetcher)
	}

	if config.Filesystem != nil {
		s.v1handler.fs = api.NewFS(config.Filesystem)
	}

	if config.Variables != nil {
		s.v1handler.config = api.NewConfig(config.Variables)
	}

	s.middleware.log = mwlog.NewWithConfig(mwlog.Config{
		Logger: s.logger,
	})

	s.router = echo.New()
	s.router.HTTPErrorHandler = errorhandler.HTTPErrorHandler
	s.router.Validator = validator.New()
	s.router.Use(s.middleware.log)
	s.router.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			rows := strings.Split(string(stack), "\n")
			s.logger.Error().WithError(err).WithField("stack", rows).Log("recovered from a panic")
			return nil
		},
	}))

	s.router.HideBanner = true
	s.router.HidePort = true

	s.router.Logger.SetOutput(httplog.NewWrapper(s.logger))

	s.setRoutes()

	return s, nil
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *server) setRoutes() {
	gzipMiddleware := middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     1,
		MinLength: 1000,
		Skipper: func(c echo.Context) bool {
			// Streams are flushed per event
			return strings.HasSuffix(c.Path(), "/events")
		},
	})

	api := s.router.Group("/api")
	api.GET("", s.handler.about.About)

	// Prometheus metrics
	if s.handler.prometheus != nil {
		s.router.GET("/metrics", s.handler.prometheus.Metrics)
	}

	// Health check
	s.router.GET("/ping", s.handler.health.Ping)
	s.router.GET("/ready", s.handler.health.Ready)

	v1 := api.Group("/v1")
	v1.Use(gzipMiddleware)

	s.setRoutesV1(v1)
}

func (s *server) setRoutesV1(v1 *echo.Group) {
	if s.v1handler.relay != nil {
		v1.GET("/state", s.v1handler.relay.State)
		v1.GET("/state/:name", s.v1handler.relay.File)

		if !s.readOnly {
			v1.POST("/cycle", s.v1handler.relay.Cycle)
		}
	}

	if s.v1handler.events != nil {
		v1.POST("/events", s.v1handler.events.Events)
	}

	if s.v1handler.proxy != nil {
		v1.GET("/proxy", s.v1handler.proxy.Get)

		if !s.readOnly {
			v1.PUT("/proxy", s.v1handler.proxy.Set)
		}
	}

	if s.v1handler.fs != nil {
		v1.GET("/fs", s.v1handler.fs.List)
		v1.GET("/fs/*", s.v1handler.fs.Get)
	}

	if s.v1handler.config != nil {
		v1.GET("/config", s.v1handler.config.Get)
	}

	v1.GET("/log", s.v1handler.log.Log)
}
