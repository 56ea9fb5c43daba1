package model

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/phishy/internal/domain/classification"
	"github.com/bryanwahyu/phishy/internal/infra/model/forest"
)

func loadTiny(t *testing.T) *forest.Forest {
	t.Helper()
	f, err := forest.Load(strings.NewReader(tinyArtifact))
	require.NoError(t, err)
	return f
}

func TestHolder_SwapAndResolve(t *testing.T) {
	h := NewHolder(nil)
	assert.False(t, h.Loaded())
	_, _, err := h.Classify(nil)
	assert.ErrorIs(t, err, classification.ErrModelUnavailable)

	m := loadTiny(t)
	h.Swap(m)
	assert.True(t, h.Loaded())
	assert.Same(t, m, classification.Resolve(h))
	assert.Equal(t, []string{"url_length"}, h.Columns())
}

func TestWatch_ReloadsOnReplace(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "model.json")
	h := NewHolder(classification.Unavailable{})
	require.NoError(t, Watch(ctx, path, h, 20*time.Millisecond, zerolog.Nop()))

	// written beside the target then renamed over it
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(tinyArtifact), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, h.Loaded, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, int64(1), h.Reloads())
}

func TestWatch_BadArtifactKeepsPrevious(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(tinyArtifact), 0o644))
	prev := loadTiny(t)
	h := NewHolder(prev)
	require.NoError(t, Watch(ctx, path, h, 20*time.Millisecond, zerolog.Nop()))

	require.NoError(t, os.WriteFile(path, []byte(`{"features":`), 0o644))
	time.Sleep(200 * time.Millisecond)

	assert.Same(t, prev, h.Current())
	assert.Zero(t, h.Reloads())
}

func TestWatch_MissingDirectory(t *testing.T) {
	h := NewHolder(nil)
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "absent", "m.json"), h, 0, zerolog.Nop())
	assert.Error(t, err)
}
