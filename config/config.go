// Package config implements types for handling the configuation for the app.
package config

import (
	"slices"
	"time"

	"github.com/ezshield/logrelay/config/value"
	"github.com/ezshield/logrelay/config/vars"

	"github.com/google/uuid"
)

const version int64 = 1

const envPrefix = "LOGRELAY_"
const envAltPrefix = "INCAP_LOGS_RELAY_"

// Data is the actual configuration data for the app
type Data struct {
	CreatedAt time.Time `json:"created_at"`
	LoadedAt  time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
	Version   int64     `json:"version"`
	ID        string    `json:"id"`
	Connector struct {
		APIID        string `json:"api_id"`
		APIKey       string `json:"api_key"`
		BaseURL      string `json:"base_url"`
		ProcessDir   string `json:"process_dir"`
		SettingsFile string `json:"settings_file"`
	} `json:"connector"`
	CreateProcessDir bool   `json:"create_process_dir"`
	SaveArtifacts    bool   `json:"save_artifacts"`
	ProxyURL         string `json:"proxy_url"`
	Fetch            struct {
		TimeoutSec    int `json:"timeout_sec"`
		RateLimitKbit int `json:"rate_limit_kbit"`
	} `json:"fetch"`
	Pull struct {
		RetryCount    int `json:"retry_count"`
		RetrySleepSec int `json:"retry_sleep_sec"`
	} `json:"pull"`
	Push struct {
		RetryCount    int    `json:"retry_count"`
		RetrySleepSec int    `json:"retry_sleep_sec"`
		Target        string `json:"target" enums:"none,log"`
	} `json:"push"`
	Schedule    string `json:"schedule"`
	IntervalSec int    `json:"interval_sec"`
	Log         struct {
		Level    string   `json:"level" enums:"debug,info,warn,error,silent"`
		Topics   []string `json:"topics"`
		MaxLines int      `json:"max_lines"`
	} `json:"log"`
	Storage struct {
		Type string `json:"type" enums:"disk,mem,s3"`
		S3   struct {
			Endpoint        string `json:"endpoint"`
			AccessKeyID     string `json:"access_key_id"`
			SecretAccessKey string `json:"secret_access_key"`
			Region          string `json:"region"`
			Bucket          string `json:"bucket"`
			UseSSL          bool   `json:"use_ssl"`
		} `json:"s3"`
	} `json:"storage"`
	API struct {
		Enable  bool   `json:"enable"`
		Address string `json:"address"`
	} `json:"api"`
	Metrics struct {
		Enable bool `json:"enable"`
	} `json:"metrics"`
}

// Config is a wrapper for Data
type Config struct {
	vars vars.Variables

	Data
}

// New returns a Config which is initialized with its default values
func New() *Config {
	cfg := &Config{}

	cfg.init()

	return cfg
}

func (d *Config) Get(name string) (string, error) {
	return d.vars.Get(name)
}

func (d *Config) Set(name, val string) error {
	return d.vars.Set(name, val)
}

// Clone returns a deep copy of the config
func (d *Config) Clone() *Config {
	data := New()

	data.Data = d.Data

	data.Log.Topics = slices.Clone(d.Log.Topics)

	data.vars.Transfer(&d.vars)

	return data
}

func env(name string) string {
	return envPrefix + name
}

func envAlt(names ...string) []string {
	alt := make([]string, 0, len(names))

	for _, name := range names {
		alt = append(alt, envAltPrefix+name)
	}

	return alt
}

func (d *Config) init() {
	d.vars.Register(value.NewInt64(&d.Version, version), "version", "", nil, "Configuration file layout version", true, false)
	d.vars.Register(value.NewTime(&d.CreatedAt, time.Now()), "created_at", "", nil, "Configuration file creation time", false, false)
	d.vars.Register(value.NewString(&d.ID, uuid.New().String()), "id", env("ID"), nil, "ID for this connector instance", true, false)

	// Connector
	d.vars.Register(value.NewString(&d.Connector.APIID, ""), "connector.api_id", env("CONNECTOR_API_ID"), envAlt("SETTINGS__APIID", "APIID"), "API ID of the log-management account", true, false)
	d.vars.Register(value.NewKey(&d.Connector.APIKey, ""), "connector.api_key", env("CONNECTOR_API_KEY"), envAlt("SETTINGS__APIKEY", "APIKEY"), "API key of the log-management account", true, true)
	d.vars.Register(value.NewURL(&d.Connector.BaseURL, ""), "connector.base_url", env("CONNECTOR_BASE_URL"), envAlt("SETTINGS__BASEURL", "BASEURL"), "Base URL the index and the log files are fetched from", true, false)
	d.vars.Register(value.NewDir(&d.Connector.ProcessDir, "./siem_logs"), "connector.process_dir", env("CONNECTOR_PROCESS_DIR"), envAlt("SETTINGS__PROCESS_DIR", "PROCESS_DIR"), "Directory for the state file and the pulled files", true, false)
	d.vars.Register(value.NewFile(&d.Connector.SettingsFile, "Settings.Config"), "connector.settings_file", env("CONNECTOR_SETTINGS_FILE"), nil, "Path to the connector settings file as provided by the log-management portal", false, false)

	d.vars.Register(value.NewBool(&d.CreateProcessDir, true), "create_process_dir", env("CREATE_PROCESS_DIR"), envAlt("CREATEPROCESSDIR"), "Create the process directory if it doesn't exist", false, false)
	d.vars.Register(value.NewBool(&d.SaveArtifacts, true), "save_artifacts", env("SAVE_ARTIFACTS"), nil, "Keep the index, the pulled files, their headers and bodies in the process directory", false, false)
	d.vars.Register(value.NewURL(&d.ProxyURL, ""), "proxy_url", env("PROXY_URL"), envAlt("PROXYURL"), "URL of a forward proxy for all requests", false, false)

	// Fetch
	d.vars.Register(value.NewPositiveInt(&d.Fetch.TimeoutSec, 60), "fetch.timeout_sec", env("FETCH_TIMEOUT_SEC"), nil, "Timeout for a single request in seconds, 0 for no timeout", false, false)
	d.vars.Register(value.NewPositiveInt(&d.Fetch.RateLimitKbit, 0), "fetch.rate_limit_kbit", env("FETCH_RATE_LIMIT_KBIT"), nil, "Max. download rate in kbit/s, 0 for unlimited", false, false)

	// Pull
	d.vars.Register(value.NewPositiveInt(&d.Pull.RetryCount, 3), "pull.retry_count", env("PULL_RETRY_COUNT"), envAlt("PULLRETRYCOUNT"), "Max. number of attempts to pull a file", false, false)
	d.vars.Register(value.NewPositiveInt(&d.Pull.RetrySleepSec, 30), "pull.retry_sleep_sec", env("PULL_RETRY_SLEEP_SEC"), envAlt("PULLRETRYSLEEP"), "Seconds to wait before the next cycle after a failed pull", false, false)

	// Push
	d.vars.Register(value.NewPositiveInt(&d.Push.RetryCount, 3), "push.retry_count", env("PUSH_RETRY_COUNT"), envAlt("PUSHRETRYCOUNT"), "Max. number of attempts to push a file", false, false)
	d.vars.Register(value.NewPositiveInt(&d.Push.RetrySleepSec, 30), "push.retry_sleep_sec", env("PUSH_RETRY_SLEEP_SEC"), envAlt("PUSHRETRYSLEEP"), "Seconds to wait before the next cycle after a failed push", false, false)
	d.vars.Register(value.NewEnum(&d.Push.Target, "none", []string{"none", "log"}), "push.target", env("PUSH_TARGET"), nil, "Where to relay the lines of a pulled file: none, log", false, false)

	// Schedule
	d.vars.Register(value.NewCron(&d.Schedule, ""), "schedule", env("SCHEDULE"), nil, "Cron pattern for running a cycle, empty for using interval_sec", false, false)
	d.vars.Register(value.NewPositiveInt(&d.IntervalSec, 60), "interval_sec", env("INTERVAL_SEC"), nil, "Seconds between two cycles", false, false)

	// Log
	d.vars.Register(value.NewEnum(&d.Log.Level, "info", []string{"silent", "error", "warn", "info", "debug"}), "log.level", env("LOG_LEVEL"), nil, "Loglevel: silent, error, warn, info, debug", false, false)
	d.vars.Register(value.NewStringList(&d.Log.Topics, []string{}, ","), "log.topics", env("LOG_TOPICS"), nil, "Show only selected log topics", false, false)
	d.vars.Register(value.NewPositiveInt(&d.Log.MaxLines, 1000), "log.max_lines", env("LOG_MAX_LINES"), nil, "Number of latest log lines to keep in memory", false, false)

	// Storage
	d.vars.Register(value.NewEnum(&d.Storage.Type, "disk", []string{"disk", "mem", "s3"}), "storage.type", env("STORAGE_TYPE"), nil, "Where to keep the process directory: disk, mem, s3", false, false)
	d.vars.Register(value.NewString(&d.Storage.S3.Endpoint, ""), "storage.s3.endpoint", env("STORAGE_S3_ENDPOINT"), nil, "S3 endpoint (host:port)", false, false)
	d.vars.Register(value.NewString(&d.Storage.S3.AccessKeyID, ""), "storage.s3.access_key_id", env("STORAGE_S3_ACCESS_KEY_ID"), nil, "S3 access key ID", false, false)
	d.vars.Register(value.NewString(&d.Storage.S3.SecretAccessKey, ""), "storage.s3.secret_access_key", env("STORAGE_S3_SECRET_ACCESS_KEY"), nil, "S3 secret access key", false, true)
	d.vars.Register(value.NewString(&d.Storage.S3.Region, ""), "storage.s3.region", env("STORAGE_S3_REGION"), nil, "S3 region", false, false)
	d.vars.Register(value.NewString(&d.Storage.S3.Bucket, ""), "storage.s3.bucket", env("STORAGE_S3_BUCKET"), nil, "S3 bucket", false, false)
	d.vars.Register(value.NewBool(&d.Storage.S3.UseSSL, true), "storage.s3.use_ssl", env("STORAGE_S3_USE_SSL"), nil, "Use TLS for S3 requests", false, false)

	// API
	d.vars.Register(value.NewBool(&d.API.Enable, false), "api.enable", env("API_ENABLE"), nil, "Enable the status API", false, false)
	d.vars.Register(value.NewAddress(&d.API.Address, ":8090"), "api.address", env("API_ADDRESS"), nil, "HTTP listening address of the status API", false, false)

	// Metrics
	d.vars.Register(value.NewBool(&d.Metrics.Enable, true), "metrics.enable", env("METRICS_ENABLE"), nil, "Enable the prometheus endpoint /metrics", false, false)
}

// Validate validates the current state of the Config for completeness and sanity. Errors are
// written to the log. Use resetLogs to indicate to reset the logs prior validation.
func (d *Config) Validate(resetLogs bool) {
	if resetLogs {
		d.vars.ResetLogs()
	}

	if d.Version != version {
		d.vars.Log("error", "version", "unknown configuration layout version (found version %d, expecting version %d)", d.Version, version)

		return
	}

	d.vars.Validate()

	// Individual sanity checks

	// If no cron pattern is given, the interval has to be set to a useful value
	if len(d.Schedule) == 0 && d.IntervalSec < 1 {
		d.vars.Log("error", "interval_sec", "must be equal or greater than 1 if no schedule is given")
	}

	// The S3 storage needs an endpoint and a bucket
	if d.Storage.Type == "s3" {
		if len(d.Storage.S3.Endpoint) == 0 {
			d.vars.Log("error", "storage.s3.endpoint", "must be set for the s3 storage type")
		}

		if len(d.Storage.S3.Bucket) == 0 {
			d.vars.Log("error", "storage.s3.bucket", "must be set for the s3 storage type")
		}
	}

	// The API is needed for exposing the metrics
	if d.Metrics.Enable && !d.API.Enable {
		d.vars.Log("warn", "metrics.enable", "metrics are only exposed if api.enable is set")
	}
}

// Merge merges the values of the known environment variables into the configuration
func (d *Config) Merge() {
	d.vars.Merge()
}

// Messages calls for each log entry the provided callback. The level has the values 'error', 'warn', or 'info'.
// The name is the name of the configuration value, e.g. 'connector.api_id'. The message is the log message.
func (d *Config) Messages(logger func(level string, v vars.Variable, message string)) {
	d.vars.Messages(logger)
}

// HasErrors returns whether there are some error messages in the log.
func (d *Config) HasErrors() bool {
	return d.vars.HasErrors()
}

// Overrides returns a list of configuration value names that have been overriden by an environment variable.
func (d *Config) Overrides() []string {
	return d.vars.Overrides()
}

// Variables returns all configuration values. Secrets are disguised.
func (d *Config) Variables() []vars.Variable {
	return d.vars.List()
}
