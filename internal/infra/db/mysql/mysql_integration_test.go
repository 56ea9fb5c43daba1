//go:build integration

package mysql

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bryanwahyu/phishy/internal/domain/apikeys"
	domain "github.com/bryanwahyu/phishy/internal/domain/scans"
	"github.com/bryanwahyu/phishy/internal/infra/db/dbtest"
	"github.com/bryanwahyu/phishy/internal/infra/db/migrations"
)

func startMySQL(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mysql:8.4",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "secret",
				"MYSQL_DATABASE":      "phishy",
			},
			// the entrypoint restarts mysqld once after init
			WaitingFor: wait.ForAll(
				wait.ForLog("ready for connections").WithOccurrence(2),
				wait.ForListeningPort("3306/tcp"),
			).WithDeadline(3 * time.Minute),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err)

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("root:secret@tcp(%s:%s)/phishy?parseTime=true&charset=utf8mb4&loc=UTC", host, port.Port())
	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(ctx, db.DB, "mysql"))
	// second run is a no-op
	require.NoError(t, migrations.Up(ctx, db.DB, "mysql"))
	return db
}

func truncate(t *testing.T, db *sqlx.DB) {
	t.Helper()
	_, err := db.Exec("DELETE FROM url_scans")
	require.NoError(t, err)
	_, err = db.Exec("DELETE FROM api_keys")
	require.NoError(t, err)
}

func TestMySQLRepositories(t *testing.T) {
	db := startMySQL(t)

	dbtest.ScanRepository(t, func(t *testing.T) domain.Repository {
		truncate(t, db)
		return NewScanRepository(db)
	})
	dbtest.APIKeyRepository(t, func(t *testing.T) apikeys.Repository {
		truncate(t, db)
		return NewAPIKeyRepository(db)
	})
}
