package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	gohttp "net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ezshield/logrelay/app"
	"github.com/ezshield/logrelay/config"
	"github.com/ezshield/logrelay/config/connector"
	configstore "github.com/ezshield/logrelay/config/store"
	configvars "github.com/ezshield/logrelay/config/vars"
	"github.com/ezshield/logrelay/event"
	"github.com/ezshield/logrelay/fetch"
	"github.com/ezshield/logrelay/http"
	httpapi "github.com/ezshield/logrelay/http/handler/api"
	"github.com/ezshield/logrelay/io/fs"
	"github.com/ezshield/logrelay/log"
	"github.com/ezshield/logrelay/prometheus"
	"github.com/ezshield/logrelay/relay"
	"github.com/ezshield/logrelay/relay/scheduler"
	"github.com/ezshield/logrelay/relay/store"

	"go.uber.org/automaxprocs/maxprocs"
)

// The API interface is the implementation of the relay service.
type API interface {
	// Start starts the relay and the HTTP server. This is blocking until
	// the app has been ended with Stop() or Destroy(), the context is
	// canceled or the HTTP server fails.
	Start(ctx context.Context) error

	// Stop stops the relay and the HTTP server. The state is kept.
	Stop()

	// Destroy is the same as Stop() and closes the logger.
	Destroy()

	// Reload the configuration. If there's an error the previously
	// loaded configuration is not altered.
	Reload() error

	// RunOnce runs a single cycle without the scheduler and the HTTP server.
	RunOnce(ctx context.Context) (relay.Report, error)

	// State returns the persisted state of the relay.
	State() (store.State, error)

	// Config returns a copy of the loaded configuration.
	Config() *config.Config
}

// Options are the sources for the configuration.
type Options struct {
	// ConfigPath is the path to the JSON config file, optional
	ConfigPath string

	// SettingsPath is the path to the connector settings file. It
	// overrides connector.settings_file from the config file.
	SettingsPath string

	// Set are values for single configuration values by their name,
	// e.g. "pull.retry_count=5". They override the settings file.
	Set map[string]string

	// LogWriter is where the console log is written to
	LogWriter io.Writer
}

type api struct {
	fs       fs.Filesystem
	store    store.Store
	fetcher  fetch.Client
	relay    relay.Relay
	runner   scheduler.Runner
	events   *event.PubSub
	prom     prometheus.Metrics
	server   *gohttp.Server
	lastFail error

	errorChan chan error

	log struct {
		writer io.Writer
		buffer log.BufferWriter
		logger struct {
			core  log.Logger
			relay log.Logger
			push  log.Logger
			http  log.Logger
		}
	}

	config struct {
		options Options
		config  *config.Config
	}

	lock      sync.Mutex
	failLock  sync.Mutex
	wgStop    sync.WaitGroup
	state     string
	startedAt time.Time

	undoMaxprocs func()
}

// New returns a new instance of the API interface
func New(options Options) (API, error) {
	a := &api{
		state: "idle",
	}

	a.config.options = options
	a.log.writer = options.LogWriter

	if a.log.writer == nil {
		a.log.writer = io.Discard
	}

	if err := a.Reload(); err != nil {
		return nil, err
	}

	return a, nil
}

// Load reads the configuration from the given sources. The messages of the
// validation are written to logger. The order of precedence is the
// environment, the values from Set, the connector settings file, the config
// file and the defaults.
func Load(options Options, logger log.Logger) (*config.Config, error) {
	if logger == nil {
		logger = log.New("")
	}

	cfg := config.New()

	if len(options.ConfigPath) != 0 {
		path, err := filepath.Abs(options.ConfigPath)
		if err != nil {
			return nil, err
		}

		rootfs, err := fs.NewDiskFilesystem(fs.DiskConfig{
			Root: filepath.Dir(path),
		})
		if err != nil {
			return nil, err
		}

		store, err := configstore.NewJSON(rootfs, "/"+filepath.Base(path))
		if err != nil {
			return nil, err
		}

		cfg = store.Get()

		logger.Info().WithField("path", path).Log("Read config file")
	}

	settingsPath := cfg.Connector.SettingsFile
	if len(options.SettingsPath) != 0 {
		settingsPath = options.SettingsPath
	}

	if len(settingsPath) != 0 {
		settings, err := connector.Load(settingsPath)
		if err != nil {
			if len(options.SettingsPath) != 0 || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}

			logger.Debug().WithField("path", settingsPath).Log("No connector settings file found")
		} else {
			for _, name := range settings.Apply(cfg) {
				logger.Warn().WithField("setting", name).Log("Setting is not supported and will be ignored")
			}

			logger.Info().WithField("path", settingsPath).Log("Read connector settings file")
		}
	}

	names := make([]string, 0, len(options.Set))
	for name := range options.Set {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if err := cfg.Set(name, options.Set[name]); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
	}

	cfg.Merge()
	cfg.Validate(false)

	configlogger := logger.WithComponent("Config")
	cfg.Messages(func(level string, v configvars.Variable, message string) {
		l := configlogger.WithFields(log.Fields{
			"variable":    v.Name,
			"value":       v.Value,
			"env":         v.EnvName,
			"description": v.Description,
			"override":    v.Merged,
		})

		switch level {
		case "warn":
			l.Warn().Log(message)
		case "error":
			l.Error().WithField("error", message).Log("")
		default:
			l.Debug().Log(message)
		}
	})

	if cfg.HasErrors() {
		return nil, fmt.Errorf("not all variables are set or valid")
	}

	cfg.LoadedAt = time.Now()

	return cfg, nil
}

func parseLevel(level string) log.Level {
	switch level {
	case "silent":
		return log.Lsilent
	case "error":
		return log.Lerror
	case "warn":
		return log.Lwarn
	case "debug":
		return log.Ldebug
	}

	return log.Linfo
}

func (a *api) Reload() error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.state == "running" {
		return fmt.Errorf("can't reload config while running")
	}

	logger := log.New("Core").WithOutput(log.NewConsoleWriter(a.log.writer, log.Lwarn, true))

	cfg, err := Load(a.config.options, logger)
	if err != nil {
		logger.Error().WithError(err).Log("Not all variables are set or are valid. Check the error messages above. Bailing out.")
		return err
	}

	loglevel := parseLevel(cfg.Log.Level)

	buffer := log.NewBufferWriter(loglevel, cfg.Log.MaxLines)

	logger = logger.WithOutput(log.NewMultiWriter(
		log.NewTopicWriter(
			log.NewConsoleWriter(a.log.writer, loglevel, true),
			cfg.Log.Topics,
		),
		buffer,
	))

	logfields := log.Fields{
		"application": app.Name,
		"version":     app.Version.String(),
		"arch":        app.Arch,
		"compiler":    app.Compiler,
	}

	if len(app.Commit) != 0 && len(app.Branch) != 0 {
		logfields["commit"] = app.Commit
		logfields["branch"] = app.Branch
	}

	if len(app.Build) != 0 {
		logfields["build"] = app.Build
	}

	logger.Info().WithFields(logfields).Log("")

	a.config.config = cfg
	a.log.buffer = buffer
	a.log.logger.core = logger
	a.log.logger.relay = logger.WithComponent("Relay")
	a.log.logger.push = logger.WithComponent("Push")
	a.log.logger.http = logger.WithComponent("HTTP").WithField("address", cfg.API.Address)

	return nil
}

func (a *api) Config() *config.Config {
	a.lock.Lock()
	defer a.lock.Unlock()

	return a.config.config.Clone()
}

// openFilesystem returns the filesystem for the process directory.
func openFilesystem(cfg *config.Config, logger log.Logger) (fs.Filesystem, error) {
	switch cfg.Storage.Type {
	case "mem":
		return fs.NewMemFilesystem(fs.MemConfig{
			Name:   "process",
			Logger: logger,
		})
	case "s3":
		return fs.NewS3Filesystem(fs.S3Config{
			Name:            "process",
			Endpoint:        cfg.Storage.S3.Endpoint,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			Region:          cfg.Storage.S3.Region,
			Bucket:          cfg.Storage.S3.Bucket,
			UseSSL:          cfg.Storage.S3.UseSSL,
			Logger:          logger,
		})
	}

	return fs.NewDiskFilesystem(fs.DiskConfig{
		Name:   "process",
		Root:   cfg.Connector.ProcessDir,
		Create: cfg.CreateProcessDir,
		Logger: logger,
	})
}

// setup creates all parts that are required for running a cycle.
func (a *api) setup() error {
	cfg := a.config.config
	logger := a.log.logger.core

	if a.fs == nil {
		f, err := openFilesystem(cfg, logger.WithComponent("FS"))
		if err != nil {
			return fmt.Errorf("process directory: %w", err)
		}

		a.fs = f
	}

	if a.store == nil {
		s, err := store.NewJSON(store.JSONConfig{
			Filesystem: a.fs,
			Filepath:   store.StatePath,
			Logger:     logger.WithComponent("State"),
		})
		if err != nil {
			return fmt.Errorf("state store: %w", err)
		}

		a.store = s
	}

	fetcher, err := fetch.New(fetch.Config{
		BaseURL:       cfg.Connector.BaseURL,
		Username:      cfg.Connector.APIID,
		Password:      cfg.Connector.APIKey,
		Proxy:         cfg.ProxyURL,
		Timeout:       time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
		RateLimit:     cfg.Fetch.RateLimitKbit,
		ClientName:    app.Name,
		ClientVersion: app.Version.String(),
	})
	if err != nil {
		return fmt.Errorf("fetch client: %w", err)
	}

	a.fetcher = fetcher

	var pusher relay.Pusher

	switch cfg.Push.Target {
	case "log":
		pusher = relay.NewLogPusher(a.log.logger.push)
	default:
		pusher = relay.NewNopPusher()
	}

	a.events = event.NewPubSub(0)

	a.wgStop.Add(1)
	go func(events <-chan event.Event, logger log.Logger) {
		defer a.wgStop.Done()
		logEvents(events, logger)
	}(a.subscribe(), a.log.logger.relay)

	observers := []relay.Observer{relay.NewPublisher(a.events)}

	if cfg.Metrics.Enable {
		a.prom = prometheus.New(true)

		collector := prometheus.NewEventCollector(cfg.ID)
		if err := a.prom.Register(collector); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}

		if err := a.prom.Register(prometheus.NewFilesystemCollector(cfg.ID, a.fs)); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}

		observers = append(observers, collector)
	}

	r, err := relay.New(relay.Config{
		Fetcher:        fetcher,
		Store:          a.store,
		Pusher:         pusher,
		Filesystem:     a.fs,
		SaveArtifacts:  cfg.SaveArtifacts,
		PullRetryLimit: cfg.Pull.RetryCount,
		PushRetryLimit: cfg.Push.RetryCount,
		Observer:       relay.Observers(observers...),
	})
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}

	a.relay = r

	if a.prom != nil {
		if err := a.prom.Register(prometheus.NewRelayCollector(cfg.ID, r.State, cfg.Pull.RetryCount, cfg.Push.RetryCount, nil)); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	logger.Info().WithFields(log.Fields{
		"base_url": cfg.Connector.BaseURL,
		"storage":  a.fs.Type(),
		"target":   cfg.Push.Target,
	}).Log("Relay ready")

	return nil
}

func (a *api) subscribe() <-chan event.Event {
	ch, _ := a.events.Subscribe(nil)
	return ch
}

func (a *api) start(ctx context.Context) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.state == "running" {
		return fmt.Errorf("already running")
	}

	cfg := a.config.config
	logger := a.log.logger.core

	undoMaxprocs, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug().Log(format, args...)
	}))
	if err != nil {
		logger.Warn().WithError(err).Log("Failed to set GOMAXPROCS")
	} else {
		a.undoMaxprocs = undoMaxprocs
	}

	a.errorChan = make(chan error, 1)

	if err := a.setup(); err != nil {
		return err
	}

	sched, err := scheduler.NewScheduler(cfg.Schedule, time.Duration(cfg.IntervalSec)*time.Second)
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	a.runner = scheduler.NewRunner(scheduler.RunnerConfig{
		Cycler:         a.relay,
		Scheduler:      sched,
		PullRetrySleep: time.Duration(cfg.Pull.RetrySleepSec) * time.Second,
		PushRetrySleep: time.Duration(cfg.Push.RetrySleepSec) * time.Second,
		OnReport:       a.onReport,
		Logger:         a.log.logger.relay,
	})

	a.startedAt = time.Now()

	if cfg.API.Enable {
		serverConfig := http.Config{
			Logger:         a.log.logger.http,
			LogBuffer:      a.log.buffer,
			Relay:          a.relay,
			PullRetryLimit: cfg.Pull.RetryCount,
			PushRetryLimit: cfg.Push.RetryCount,
			Ready:          a.ready,
			Events:         a.events,
			Fetcher:        a.fetcher,
			Filesystem:     a.fs,
			Variables:      cfg.Variables,
			About: httpapi.AboutConfig{
				ID:        cfg.ID,
				CreatedAt: a.startedAt,
				BaseURL:   cfg.Connector.BaseURL,
			},
		}

		if a.prom != nil {
			serverConfig.Prometheus = a.prom
		}

		server, err := http.NewServer(serverConfig)
		if err != nil {
			return fmt.Errorf("unable to create server: %w", err)
		}

		a.server = &gohttp.Server{
			Addr:              cfg.API.Address,
			Handler:           server,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		}

		a.wgStop.Add(1)
		go func() {
			defer a.wgStop.Done()

			a.log.logger.http.Info().Log("Server started")

			err := a.server.ListenAndServe()
			if err != nil && err != gohttp.ErrServerClosed {
				err = fmt.Errorf("HTTP server: %w", err)
			} else {
				err = nil
			}

			a.log.logger.http.Info().Log("Server exited")

			sendError(a.errorChan, err)
		}()
	}

	a.runner.Start()

	a.state = "running"

	return nil
}

func sendError(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

func (a *api) onReport(r relay.Report) {
	a.failLock.Lock()
	defer a.failLock.Unlock()

	a.lastFail = nil

	if r.Err != nil {
		a.lastFail = r.Err
	}
}

func (a *api) ready() error {
	a.failLock.Lock()
	defer a.failLock.Unlock()

	return a.lastFail
}

func (a *api) Start(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		a.stop()
		return err
	}

	a.lock.Lock()
	errorChan := a.errorChan
	a.lock.Unlock()

	// Block until there's an error from the server or the context is done
	select {
	case err := <-errorChan:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (a *api) RunOnce(ctx context.Context) (relay.Report, error) {
	a.lock.Lock()

	if a.state == "running" {
		a.lock.Unlock()
		return relay.Report{}, fmt.Errorf("already running")
	}

	if err := a.setup(); err != nil {
		a.lock.Unlock()
		a.stop()
		return relay.Report{}, err
	}

	a.state = "running"
	a.lock.Unlock()

	report := a.relay.RunCycle(ctx)

	a.stop()

	return report, nil
}

func (a *api) State() (store.State, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.relay != nil {
		return a.relay.State(), nil
	}

	if a.store == nil {
		f, err := openFilesystem(a.config.config, a.log.logger.core.WithComponent("FS"))
		if err != nil {
			return store.State{}, fmt.Errorf("process directory: %w", err)
		}

		s, err := store.NewJSON(store.JSONConfig{
			Filesystem: f,
			Filepath:   store.StatePath,
		})
		if err != nil {
			return store.State{}, err
		}

		a.fs = f
		a.store = s
	}

	return a.store.Load()
}

func (a *api) stop() {
	a.lock.Lock()
	defer a.lock.Unlock()

	logger := a.log.logger.core.WithField("action", "shutdown")

	if a.state == "idle" && a.relay == nil && a.events == nil {
		logger.Info().Log("Complete")
		return
	}

	if a.runner != nil {
		logger.Info().Log("Stopping the scheduler ...")
		a.runner.Stop()
		a.runner = nil
	}

	if a.server != nil {
		logger := a.log.logger.http
		logger.Info().Log("Stopping ...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			logger.Error().WithError(err).Log("")
		}

		a.server = nil
	}

	if a.prom != nil {
		a.prom.UnregisterAll()
		a.prom = nil
	}

	if a.events != nil {
		a.events.Close()
		a.events = nil
	}

	// Wait for the server and the event logger to exit
	a.wgStop.Wait()

	a.relay = nil
	a.fetcher = nil

	a.state = "idle"

	if a.undoMaxprocs != nil {
		a.undoMaxprocs()
		a.undoMaxprocs = nil
	}

	logger.Info().Log("Complete")
}

func (a *api) Stop() {
	a.log.logger.core.Info().Log("Shutdown requested ...")
	a.stop()
}

func (a *api) Destroy() {
	a.Stop()

	a.lock.Lock()
	a.fs = nil
	a.store = nil
	a.lock.Unlock()

	a.log.logger.core.Close()
}
