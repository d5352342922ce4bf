package model

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Database drivers understood by the store.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Trace exporters.
const (
	TracingExporterNone = "none"
	TracingExporterLog  = "log"
)

// EnvPrefix is prepended to every environment override, e.g. TASKWEB_DATABASE_DSN.
const EnvPrefix = "TASKWEB"

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string `mapstructure:"addr" yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// SecureCookies marks session and CSRF cookies as Secure.
	SecureCookies bool `mapstructure:"secure_cookies" yaml:"secure_cookies"`
}

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	// Driver is "sqlite" or "mysql".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// DSN is a file path for sqlite or a go-sql-driver DSN for mysql.
	// MySQL DSNs must include parseTime=true.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// SessionConfig controls cookie sessions.
type SessionConfig struct {
	Backend      string `mapstructure:"backend" yaml:"backend"`
	RedisURL     string `mapstructure:"redis_url" yaml:"redis_url"`
	CookieName   string `mapstructure:"cookie_name" yaml:"cookie_name"`
	CookieAgeSec int    `mapstructure:"cookie_age_sec" yaml:"cookie_age_sec"`

	// SweepInterval is how often the memory backend drops expired sessions.
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
}

// CookieAge returns the session lifetime as a duration.
func (c SessionConfig) CookieAge() time.Duration {
	return time.Duration(c.CookieAgeSec) * time.Second
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TracingConfig selects where finished spans go.
type TracingConfig struct {
	// Exporter is "none" or "log". The log exporter writes each span to the
	// application logger.
	Exporter    string `mapstructure:"exporter" yaml:"exporter"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing" yaml:"tracing"`
}

// DefaultAppConfig returns the configuration used when no file is present.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:            ":8000",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "taskweb.db",
		},
		Session: SessionConfig{
			Backend:       SessionBackendMemory,
			CookieName:    "sessionid",
			CookieAgeSec:  1209600,
			SweepInterval: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Exporter:    TracingExporterNone,
			ServiceName: "taskweb",
		},
	}
}

// NewViper returns a viper instance carrying defaults and env bindings.
// Callers may bind flags onto it before passing it to LoadConfigFrom.
func NewViper() *viper.Viper {
	d := DefaultAppConfig()
	v := viper.New()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.secure_cookies", d.Server.SecureCookies)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("session.backend", d.Session.Backend)
	v.SetDefault("session.redis_url", d.Session.RedisURL)
	v.SetDefault("session.cookie_name", d.Session.CookieName)
	v.SetDefault("session.cookie_age_sec", d.Session.CookieAgeSec)
	v.SetDefault("session.sweep_interval", d.Session.SweepInterval)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads configuration from the given YAML file path.
// A missing file yields defaults with environment overrides applied.
func LoadConfig(path string) (*AppConfig, error) {
	return LoadConfigFrom(NewViper(), path)
}

// LoadConfigFrom reads path into the prepared viper instance and validates the result.
func LoadConfigFrom(v *viper.Viper, path string) (*AppConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			var pathErr *os.PathError
			if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database dsn must not be empty")
	}
	switch c.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("session.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported session backend %q", c.Session.Backend)
	}
	if c.Session.CookieAgeSec <= 0 {
		return fmt.Errorf("session.cookie_age_sec must be positive")
	}
	switch c.Tracing.Exporter {
	case TracingExporterNone, TracingExporterLog:
	default:
		return fmt.Errorf("unsupported tracing exporter %q", c.Tracing.Exporter)
	}
	return nil
}

// NewLogger builds a logrus logger from the log section, writing to out.
func (c LogConfig) NewLogger(out io.Writer) (*log.Logger, error) {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	logger := log.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	switch c.Format {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unsupported log format %q", c.Format)
	}
	return logger, nil
}
