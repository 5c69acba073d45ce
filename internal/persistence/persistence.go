// Package persistence opens the credential database and applies its
// schema migrations.
package persistence

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to dsn with driver and returns a bun handle with the
// matching dialect. The connection is pinged before returning.
func Open(ctx context.Context, driver, dsn string) (*bun.DB, error) {
	var (
		sqldb *sql.DB
		db    *bun.DB
		err   error
	)

	switch driver {
	case DriverSQLite, "":
		sqldb, err = sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "db open error")
		}
		// a single connection serializes writers and keeps shared memory
		// databases alive
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "db open error")
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, errors.New("unsupported database driver", errors.CategoryValidation).
			WithMetadata(map[string]any{"driver": driver})
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "db ping error")
	}

	return db, nil
}

// Migrate applies every pending migration in migrations.
func Migrate(ctx context.Context, db *bun.DB, driver string, migrations fs.FS) error {
	dialect := goose.DialectSQLite3
	if driver == DriverPostgres {
		dialect = goose.DialectPostgres
	}

	provider, err := goose.NewProvider(dialect, db.DB, migrations)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "migration provider error")
	}

	if _, err := provider.Up(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "migration error")
	}
	return nil
}

// MigrationsDialect maps a driver name to the migrations directory used
// for it.
func MigrationsDialect(driver string) string {
	if driver == DriverPostgres {
		return DriverPostgres
	}
	return DriverSQLite
}
