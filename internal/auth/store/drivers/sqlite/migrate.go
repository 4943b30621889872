package sqlite

import (
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/internal/auth/store/drivers/sqlite/migrations"

	"github.com/golang-migrate/migrate/v4/database/sqlite"
)

// ApplyMigrations brings the schema up to date from the migrations embedded
// in the binary.
func (s *Store) ApplyMigrations() error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return err
	}
	return store.Migrate(migrations.Migrations, "sqlite", driver)
}
