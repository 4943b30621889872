package store

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrate applies every pending up migration in migrations to driver. A
// schema left dirty by an earlier failed run is reported rather than
// forced.
func Migrate(migrations fs.FS, dbName string, driver database.Driver) error {
	src, err := iofs.New(migrations, ".")
	if err != nil {
		return fmt.Errorf("%s migrations: %w", dbName, err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dbName, driver)
	if err != nil {
		return fmt.Errorf("%s migrations: %w", dbName, err)
	}

	if version, dirty, err := m.Version(); err == nil && dirty {
		return fmt.Errorf("%s schema is dirty at version %d", dbName, version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s migrations: %w", dbName, err)
	}
	return nil
}
