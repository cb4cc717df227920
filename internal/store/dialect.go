package store

import (
	"sort"
	"sync"

	sq "github.com/Masterminds/squirrel"
)

// Dialect describes how to reach and migrate one kind of relational backend.
type Dialect struct {
	// Name is the value accepted in database.driver.
	Name string
	// DriverName is the database/sql driver registered by the backend package.
	DriverName string
	// GooseDialect is the dialect name understood by goose.
	GooseDialect string
	// Placeholder is the bind-parameter style used when building SQL.
	Placeholder sq.PlaceholderFormat
	// DSN builds the connection string from the database configuration.
	DSN func(cfg Config) string
}

// MigrationsDir is the embedded directory holding this dialect's migrations.
func (d *Dialect) MigrationsDir() string {
	return "migrations/" + d.Name
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Dialect)
)

// Register adds a dialect to the registry.
// Called by dialect implementations in their init() functions.
func Register(d *Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name] = d
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (*Dialect, error) {
	registryMu.RLock()
	d, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownDialectError{Name: name, Available: Names()}
	}
	return d, nil
}

// Names returns all registered dialect names (sorted).
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a dialect name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}
