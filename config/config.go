package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "pgtime"

var (
	cfgSingleton atomic.Value

	overrideMu sync.Mutex
	overrides  []func(*Configuration)
)

var DefaultConfiguration = Configuration{
	Database: DatabaseConfiguration{
		MaxOpenConn: 10,
	},
	Maintenance: MaintenanceConfiguration{
		Interval:          Duration(5 * time.Minute),
		Lookahead:         2,
		OperationTimeout:  Duration(30 * time.Second),
		Workers:           1,
		CompressionMethod: LZ4Compression,
		Epoch:             "2000-01-01T00:00:00Z",
	},
	Lifecycle: LifecycleConfiguration{
		HostCheckInterval:    Duration(10 * time.Second),
		HostFailureThreshold: 3,
		WatchConfig:          true,
	},
	Server: ServerConfiguration{
		Port: 5009,
	},
	Redis: RedisConfiguration{
		LockTTL: Duration(10 * time.Minute),
	},
	Logger: LoggerConfiguration{
		Level: "info",
	},
	Metrics: MetricsConfiguration{
		Enabled: true,
	},
}

type DatabaseConfiguration struct {
	Dsn         string `json:"dsn" envconfig:"DSN"`
	MaxOpenConn int    `json:"max_open_conn" envconfig:"MAX_OPEN_CONN"`
}

type MaintenanceConfiguration struct {
	Interval          Duration          `json:"interval" envconfig:"INTERVAL"`
	Lookahead         uint              `json:"lookahead" envconfig:"LOOKAHEAD"`
	OperationTimeout  Duration          `json:"operation_timeout" envconfig:"OPERATION_TIMEOUT"`
	Workers           int               `json:"workers" envconfig:"WORKERS"`
	DryRun            bool              `json:"dry_run" envconfig:"DRY_RUN"`
	CompressionMethod CompressionMethod `json:"compression_method" envconfig:"COMPRESSION_METHOD"`
	Epoch             string            `json:"epoch" envconfig:"EPOCH"`
}

// EpochTime parses the configured bucket origin.
func (m MaintenanceConfiguration) EpochTime() (time.Time, error) {
	return time.Parse(time.RFC3339, m.Epoch)
}

type LifecycleConfiguration struct {
	HostCheckInterval    Duration `json:"host_check_interval" envconfig:"HOST_CHECK_INTERVAL"`
	HostFailureThreshold int      `json:"host_failure_threshold" envconfig:"HOST_FAILURE_THRESHOLD"`
	WatchConfig          bool     `json:"watch_config" envconfig:"WATCH_CONFIG"`
}

type ServerConfiguration struct {
	Port uint32 `json:"port" envconfig:"PORT"`
}

type RedisConfiguration struct {
	Dsn     string   `json:"dsn" envconfig:"DSN"`
	LockTTL Duration `json:"lock_ttl" envconfig:"LOCK_TTL"`
}

type LoggerConfiguration struct {
	Level string `json:"level" envconfig:"LEVEL"`
}

type MetricsConfiguration struct {
	Enabled bool `json:"enabled" envconfig:"ENABLED"`
}

type Configuration struct {
	Database    DatabaseConfiguration    `json:"database" envconfig:"DATABASE"`
	Maintenance MaintenanceConfiguration `json:"maintenance" envconfig:"MAINTENANCE"`
	Lifecycle   LifecycleConfiguration   `json:"lifecycle" envconfig:"LIFECYCLE"`
	Server      ServerConfiguration      `json:"server" envconfig:"SERVER"`
	Redis       RedisConfiguration       `json:"redis" envconfig:"REDIS"`
	Logger      LoggerConfiguration      `json:"logger" envconfig:"LOGGER"`
	Metrics     MetricsConfiguration     `json:"metrics" envconfig:"METRICS"`

	// Path is the file the configuration was loaded from, if any.
	Path string `json:"-" ignored:"true"`
}

type CompressionMethod string

const (
	LZ4Compression  CompressionMethod = "lz4"
	PGLZCompression CompressionMethod = "pglz"
)

func (c CompressionMethod) IsValid() bool {
	return c == LZ4Compression || c == PGLZCompression
}

// Duration accepts Go duration strings ("5m", "30s") in both JSON and the environment.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string such as \"5m\": %w", err)
	}

	return d.Decode(s)
}

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	v, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return err
	}

	*d = Duration(v)
	return nil
}

// LoadConfig reads the file at p (when it exists), applies environment
// variables and any registered overrides, validates the result and
// stores it. It is safe to call again to reload.
func LoadConfig(p string) error {
	c := DefaultConfiguration
	c.Path = p

	if p != "" {
		f, err := os.Open(p)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return err
		default:
			defer f.Close()
			if err := json.NewDecoder(f).Decode(&c); err != nil {
				return fmt.Errorf("failed to decode config file %s: %w", p, err)
			}
		}
	}

	if err := envconfig.Process(envPrefix, &c); err != nil {
		return err
	}

	overrideMu.Lock()
	for _, fn := range overrides {
		fn(&c)
	}
	overrideMu.Unlock()

	if err := validate(&c); err != nil {
		return err
	}

	cfgSingleton.Store(&c)
	return nil
}

// Override registers fn to run on every load after the file and the
// environment have been applied, which lets CLI flags survive reloads.
// The current configuration, if any, is updated immediately.
func Override(fn func(*Configuration)) error {
	c, ok := cfgSingleton.Load().(*Configuration)
	if ok {
		next := *c
		fn(&next)
		if err := validate(&next); err != nil {
			return err
		}
		cfgSingleton.Store(&next)
	}

	overrideMu.Lock()
	overrides = append(overrides, fn)
	overrideMu.Unlock()
	return nil
}

// ResetOverrides drops every registered override.
func ResetOverrides() {
	overrideMu.Lock()
	overrides = nil
	overrideMu.Unlock()
}

func validate(c *Configuration) error {
	if c.Maintenance.Interval <= 0 {
		return errors.New("maintenance interval must be positive")
	}

	if c.Maintenance.OperationTimeout <= 0 {
		return errors.New("operation timeout must be positive")
	}

	if c.Maintenance.Workers < 1 {
		return errors.New("at least one worker is required")
	}

	if !c.Maintenance.CompressionMethod.IsValid() {
		return fmt.Errorf("invalid compression method - '%s', must be one of %s, %s",
			c.Maintenance.CompressionMethod, LZ4Compression, PGLZCompression)
	}

	if _, err := c.Maintenance.EpochTime(); err != nil {
		return fmt.Errorf("invalid epoch: %w", err)
	}

	if c.Lifecycle.HostCheckInterval <= 0 {
		return errors.New("host check interval must be positive")
	}

	if c.Lifecycle.HostFailureThreshold < 1 {
		return errors.New("host failure threshold must be at least 1")
	}

	return nil
}

// Get fetches the application configuration. LoadConfig must have been called
// previously for this to work.
// Use this when you need to get access to the config object at runtime
func Get() (Configuration, error) {
	c, ok := cfgSingleton.Load().(*Configuration)
	if !ok {
		return Configuration{}, errors.New("call Load before this function")
	}

	return *c, nil
}
