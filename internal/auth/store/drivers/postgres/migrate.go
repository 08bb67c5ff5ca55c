package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/tuckshop/internal/auth/store/drivers/postgres/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ApplyMigrations applies pending migrations over a dedicated connection.
// The pgx5 migrate driver closes the database it is handed, so it must not be
// given the store's pool.
func (s *Store) ApplyMigrations() error {
	url, err := migrateURL(s.dsn)
	if err != nil {
		return err
	}

	migrationsFilesystem, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithSourceInstance("iofs", migrationsFilesystem, url)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = instance.Close()
	}()

	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// migrateURL rewrites postgres:// URLs to the pgx5:// scheme migrate expects.
func migrateURL(dsn string) (string, error) {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return "pgx5://" + rest, nil
		}
	}
	if strings.HasPrefix(dsn, "pgx5://") {
		return dsn, nil
	}
	return "", fmt.Errorf("postgres: migrations need a postgres:// URL, got %q", redact(dsn))
}

func redact(dsn string) string {
	if at := strings.LastIndex(dsn, "@"); at >= 0 {
		return "***" + dsn[at:]
	}
	return dsn
}
