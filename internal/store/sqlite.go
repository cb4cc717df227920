package store

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	// SQLite driver
	_ "modernc.org/sqlite"
)

// MemoryPath selects a private in-memory SQLite database.
const MemoryPath = ":memory:"

func init() {
	Register(&Dialect{
		Name:         "sqlite",
		DriverName:   "sqlite",
		GooseDialect: "sqlite",
		Placeholder:  sq.Question,
		DSN:          buildSQLiteDSN,
	})
}

// buildSQLiteDSN enables WAL and a busy timeout so concurrent writers wait
// for the lock instead of failing with SQLITE_BUSY.
func buildSQLiteDSN(cfg Config) string {
	if cfg.Path == "" || cfg.Path == MemoryPath {
		return "file::memory:?_pragma=busy_timeout(5000)"
	}

	path := cfg.Path
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate", path)
}

// isMemory reports whether cfg points at an in-memory SQLite database.
// Each connection to such a database sees its own copy, so the pool must be
// limited to one connection.
func isMemory(cfg Config) bool {
	return cfg.Driver == "sqlite" && (cfg.Path == "" || cfg.Path == MemoryPath)
}
