// Package migrations holds the schema for every supported backend, applied
// with goose at startup.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed mysql/*.sql postgres/*.sql sqlite/*.sql
var files embed.FS

// Up applies pending migrations for dialect ("mysql", "postgres" or "sqlite").
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	var d goose.Dialect
	switch dialect {
	case "mysql":
		d = goose.DialectMySQL
	case "postgres":
		d = goose.DialectPostgres
	case "sqlite":
		d = goose.DialectSQLite3
	default:
		return fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	dir, err := fs.Sub(files, dialect)
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(d, db, dir)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrations: %s up: %w", dialect, err)
	}
	return nil
}
