// Package open connects the configured backend and hands out its repositories.
package open

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bryanwahyu/phishy/internal/config"
	"github.com/bryanwahyu/phishy/internal/domain/apikeys"
	"github.com/bryanwahyu/phishy/internal/domain/scans"
	"github.com/bryanwahyu/phishy/internal/infra/db/migrations"
	mysqlp "github.com/bryanwahyu/phishy/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/phishy/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/phishy/internal/infra/db/sqlite"
)

// Store bundles a live connection with its repositories.
type Store struct {
	DB      *sqlx.DB
	Driver  string
	Scans   scans.Repository
	APIKeys apikeys.Repository
}

func (s *Store) Close() error { return s.DB.Close() }

// Connect opens cfg.Database.Driver. SQLite always migrates on open; MySQL
// and Postgres migrate when cfg.Database.Migrate is set.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	s := &Store{Driver: cfg.Database.Driver}
	var err error

	switch cfg.Database.Driver {
	case config.DriverMySQL:
		if s.DB, err = mysqlp.Connect(ctx, cfg.MySQLDSN()); err != nil {
			return nil, err
		}
		s.Scans = mysqlp.NewScanRepository(s.DB)
		s.APIKeys = mysqlp.NewAPIKeyRepository(s.DB)
	case config.DriverPostgres:
		if s.DB, err = pgp.Connect(ctx, cfg.PostgresDSN()); err != nil {
			return nil, err
		}
		s.Scans = pgp.NewScanRepository(s.DB)
		s.APIKeys = pgp.NewAPIKeyRepository(s.DB)
	case config.DriverSQLite:
		if s.DB, err = sqlitep.Open(ctx, cfg.SQLitePath()); err != nil {
			return nil, err
		}
		s.Scans = sqlitep.NewScanRepository(s.DB)
		s.APIKeys = sqlitep.NewAPIKeyRepository(s.DB)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if cfg.Database.Migrate {
		if err := migrations.Up(ctx, s.DB.DB, cfg.Database.Driver); err != nil {
			_ = s.DB.Close()
			return nil, err
		}
	}
	return s, nil
}
