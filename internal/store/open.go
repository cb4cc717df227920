package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Config selects and tunes the backend.
type Config struct {
	Driver string

	// SQLite
	Path string

	// PostgreSQL
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxConns        int
	ConnMaxLifetime time.Duration
}

// Open opens the backend described by cfg, applies connection limits and
// verifies it is reachable.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, *Dialect, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d, err := Lookup(cfg.Driver)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("opening database", slog.String("driver", d.Name), slog.String("path", cfg.Path), slog.String("host", cfg.Host))

	db, err := sql.Open(d.DriverName, d.DSN(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s database: %w", d.Name, err)
	}

	maxConns := cfg.MaxConns
	if isMemory(cfg) || maxConns <= 0 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	if isMemory(cfg) {
		// Closing the last connection would discard the database.
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping %s database: %w", d.Name, err)
	}

	return db, d, nil
}

// MaxConns reports how many connections the backend described by cfg can
// usefully hold open at once.
func MaxConns(cfg Config) int {
	if isMemory(cfg) || cfg.MaxConns <= 0 {
		return 1
	}
	return cfg.MaxConns
}
