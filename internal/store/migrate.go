package store

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// Migrate creates the jokes table if it does not exist yet.
func Migrate(db *sql.DB, d *Dialect) error {
	if db == nil {
		return fmt.Errorf("database not opened")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := configureGoose(d); err != nil {
		return err
	}

	if err := goose.Up(db, d.MigrationsDir()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationVersion returns the current migration version.
func MigrationVersion(db *sql.DB, d *Dialect) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := configureGoose(d); err != nil {
		return 0, err
	}

	return goose.GetDBVersion(db)
}

func configureGoose(d *Dialect) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(d.GooseDialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}
