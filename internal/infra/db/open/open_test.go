package open

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/phishy/internal/config"
)

func TestConnect_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "open.db")

	s, err := Connect(context.Background(), cfg)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, config.DriverSQLite, s.Driver)
	_, found, err := s.APIKeys.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	list, err := s.Scans.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConnect_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "oracle"
	_, err := Connect(context.Background(), cfg)
	assert.Error(t, err)
}
