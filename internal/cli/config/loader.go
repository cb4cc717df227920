package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: JOKEBOX_DATABASE__MAX_CONNS -> database.max_conns.
const EnvPrefix = "JOKEBOX_"

// configKey and loggerKey are used to store values in the command context.
type (
	configKey struct{}
	loggerKey struct{}
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"db-driver":       "database.driver",
	"db":              "database.path",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"port":            "server.port",
	"collection-mode": "server.collection_mode",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > jokebox.yaml > jokebox.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"jokebox.yaml", "jokebox.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func defaultsMap() map[string]interface{} {
	d := Defaults()
	return map[string]interface{}{
		"database.driver":            d.Database.Driver,
		"database.path":              d.Database.Path,
		"database.host":              d.Database.Host,
		"database.port":              d.Database.Port,
		"database.name":              d.Database.Name,
		"database.user":              d.Database.User,
		"database.password":          d.Database.Password,
		"database.sslmode":           d.Database.SSLMode,
		"database.max_conns":         d.Database.MaxConns,
		"database.acquire_timeout":   d.Database.AcquireTimeout,
		"database.conn_max_lifetime": d.Database.ConnMaxLifetime,
		"server.host":                d.Server.Host,
		"server.port":                d.Server.Port,
		"server.collection_mode":     d.Server.CollectionMode,
		"server.read_header_timeout": d.Server.ReadHeaderTimeout,
		"server.shutdown_timeout":    d.Server.ShutdownTimeout,
		"log.level":                  d.Log.Level,
		"log.format":                 d.Log.Format,
		"metrics.enabled":            d.Metrics.Enabled,
		"metrics.path":               d.Metrics.Path,
	}
}

// envKey transforms JOKEBOX_SERVER__COLLECTION_MODE -> server.collection_mode.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// flagKey maps an explicitly set flag to its config key and value.
func flagKey(flags *pflag.FlagSet, f *pflag.Flag) (string, interface{}) {
	if !f.Changed {
		return "", nil
	}

	// --host is a switch between loopback and all interfaces.
	if f.Name == "host" {
		if on, _ := flags.GetBool("host"); on {
			return "server.host", BindAllHost
		}
		return "server.host", "127.0.0.1"
	}

	key, ok := flagKeys[f.Name]
	if !ok {
		return "", nil
	}
	return key, posflag.FlagVal(flags, f)
}

// Load loads configuration from defaults, file, environment variables and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	fileUsed := findConfigFile(cfgFile)
	if fileUsed != "" {
		if err := k.Load(file.Provider(fileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", fileUsed, err)
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (only those explicitly set)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			return flagKey(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = fileUsed

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Server.CollectionMode = strings.ToLower(cfg.Server.CollectionMode)
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)

	expandDatabaseEnvVars(&cfg.Database)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return Defaults()
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandDatabaseEnvVars expands environment variables in connection fields.
func expandDatabaseEnvVars(d *DatabaseConfig) {
	d.Password = expandEnvVars(d.Password)
	d.User = expandEnvVars(d.User)
	d.Host = expandEnvVars(d.Host)
	d.Name = expandEnvVars(d.Name)
	d.Path = expandEnvVars(d.Path)
}
