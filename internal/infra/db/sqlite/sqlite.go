// Package sqlite is the embedded single-file backend, also used by tests.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/bryanwahyu/phishy/internal/infra/db/migrations"
)

const pragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

// Open creates the database file at path if needed and brings its schema up
// to date.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := sqlx.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer; SQLite serializes writes anyway
	db.SetMaxOpenConns(1)

	if err := migrations.Up(ctx, db.DB, "sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
