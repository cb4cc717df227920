package store

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	// PostgreSQL driver registered as "pgx"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func init() {
	Register(&Dialect{
		Name:         "postgres",
		DriverName:   "pgx",
		GooseDialect: "postgres",
		Placeholder:  sq.Dollar,
		DSN:          buildPostgresDSN,
	})
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Name, sslmode)

	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}
