package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationStatus reports the schema version after a migration command.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Changed bool
}

// Migrate applies ("up"), rolls back one step ("down") or only reports
// ("version") the embedded schema migrations.
func Migrate(dbURL, direction string) (MigrationStatus, error) {
	switch direction {
	case "up", "down", "version":
	default:
		return MigrationStatus{}, fmt.Errorf("unknown migration direction %q (want up, down or version)", direction)
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	var status MigrationStatus
	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	}
	switch {
	case errors.Is(err, migrate.ErrNoChange):
	case err != nil:
		return status, fmt.Errorf("migrate %s: %w", direction, err)
	default:
		status.Changed = direction != "version"
	}

	status.Version, status.Dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return status, nil
	}
	if err != nil {
		return status, fmt.Errorf("read migration version: %w", err)
	}
	return status, nil
}
