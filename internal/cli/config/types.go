// Package config provides configuration management for the jokebox CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/jokebox/internal/pool"
	"github.com/leapstack-labs/jokebox/internal/server"
	"github.com/leapstack-labs/jokebox/internal/store"
)

// Default configuration values.
const (
	DefaultDriver          = "sqlite"
	DefaultDatabasePath    = "data.db"
	DefaultPostgresHost    = "localhost"
	DefaultPostgresPort    = 5432
	DefaultDatabaseName    = "jokes"
	DefaultSSLMode         = "disable"
	DefaultConnMaxLifetime = 5 * time.Minute
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "auto" // text on a terminal, JSON otherwise
	DefaultMetricsPath     = "/metrics"
	BindAllHost            = "0.0.0.0"
)

// Config holds all CLI configuration options.
type Config struct {
	Database DatabaseConfig `koanf:"database" yaml:"database"`
	Server   ServerConfig   `koanf:"server" yaml:"server"`
	Log      LogConfig      `koanf:"log" yaml:"log"`
	Metrics  MetricsConfig  `koanf:"metrics" yaml:"metrics"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-" yaml:"-"`
}

// DatabaseConfig selects the backend and sizes the connection pool.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver" yaml:"driver"`
	Path            string        `koanf:"path" yaml:"path"`
	Host            string        `koanf:"host" yaml:"host"`
	Port            int           `koanf:"port" yaml:"port" validate:"gte=0,lte=65535"`
	Name            string        `koanf:"name" yaml:"name"`
	User            string        `koanf:"user" yaml:"user"`
	Password        string        `koanf:"password" yaml:"password"`
	SSLMode         string        `koanf:"sslmode" yaml:"sslmode"`
	MaxConns        int           `koanf:"max_conns" yaml:"max_conns" validate:"gte=1"`
	AcquireTimeout  time.Duration `koanf:"acquire_timeout" yaml:"acquire_timeout" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" yaml:"conn_max_lifetime" validate:"gte=0"`
}

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Host              string        `koanf:"host" yaml:"host" validate:"required"`
	Port              int           `koanf:"port" yaml:"port" validate:"gte=0,lte=65535"`
	CollectionMode    string        `koanf:"collection_mode" yaml:"collection_mode" validate:"oneof=random all"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" yaml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=text json auto"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Path    string `koanf:"path" yaml:"path" validate:"startswith=/"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          DefaultDriver,
			Path:            DefaultDatabasePath,
			Host:            DefaultPostgresHost,
			Port:            DefaultPostgresPort,
			Name:            DefaultDatabaseName,
			SSLMode:         DefaultSSLMode,
			MaxConns:        pool.DefaultMaxConns,
			AcquireTimeout:  pool.DefaultAcquireTimeout,
			ConnMaxLifetime: DefaultConnMaxLifetime,
		},
		Server: ServerConfig{
			Host:              server.DefaultHost,
			Port:              server.DefaultPort,
			CollectionMode:    server.ModeRandom,
			ReadHeaderTimeout: server.DefaultReadHeaderTimeout,
			ShutdownTimeout:   server.DefaultShutdownTimeout,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    DefaultMetricsPath,
		},
	}
}

// StoreConfig converts the database section into store settings.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Driver:          c.Database.Driver,
		Path:            c.Database.Path,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		Name:            c.Database.Name,
		User:            c.Database.User,
		Password:        c.Database.Password,
		SSLMode:         c.Database.SSLMode,
		MaxConns:        c.Database.MaxConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// PoolConfig sizes the pool to what the backend can hold open.
func (c *Config) PoolConfig() pool.Config {
	return pool.Config{
		MaxConns:       store.MaxConns(c.StoreConfig()),
		AcquireTimeout: c.Database.AcquireTimeout,
	}
}

// ServerSettings converts the server and metrics sections into server
// settings. Pool, store and logger are filled in by the caller.
func (c *Config) ServerSettings() server.Config {
	return server.Config{
		Host:              c.Server.Host,
		Port:              c.Server.Port,
		CollectionMode:    c.Server.CollectionMode,
		ReadHeaderTimeout: c.Server.ReadHeaderTimeout,
		ShutdownTimeout:   c.Server.ShutdownTimeout,
		MetricsEnabled:    c.Metrics.Enabled,
		MetricsPath:       c.Metrics.Path,
	}
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Database.Password != "" {
		out.Database.Password = "********"
	}
	return &out
}
