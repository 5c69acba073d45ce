package auth

import (
	"embed"
	"io/fs"
	"path"

	"github.com/goliatone/go-errors"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the goose migrations for dialect, "sqlite" or
// "postgres".
func GetMigrationsFS(dialect string) (fs.FS, error) {
	switch dialect {
	case "sqlite", "postgres":
	default:
		return nil, errors.New("unsupported migrations dialect", errors.CategoryValidation).
			WithMetadata(map[string]any{"dialect": dialect})
	}
	return fs.Sub(migrationsFS, path.Join("data/sql/migrations", dialect))
}
