package postgres

import (
	"github.com/aussiebroadwan/fintrack/internal/auth/store"
	"github.com/aussiebroadwan/fintrack/internal/auth/store/drivers/postgres/migrations"

	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
)

// ApplyMigrations brings the schema up to date from the embedded migrations.
func (s *Store) ApplyMigrations() error {
	driver, err := pgxmigrate.WithInstance(s.db, &pgxmigrate.Config{})
	if err != nil {
		return err
	}
	return store.Migrate(migrations.Migrations, "pgx5", driver)
}
