package model

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/phishy/internal/domain/classification"
)

const tinyArtifact = `{
  "features": ["url_length"],
  "classes": [0, 1],
  "trees": [{"children_left": [-1], "children_right": [-1], "feature": [-2], "threshold": [-2], "value": [[1, 3]]}]
}`

type fakeFetcher struct {
	etag      string
	body      string
	statErr   error
	downloads int
}

func (f *fakeFetcher) Stat(context.Context, string) (int64, string, error) {
	return int64(len(f.body)), f.etag, f.statErr
}

func (f *fakeFetcher) Download(_ context.Context, _ string, path string) error {
	f.downloads++
	return os.WriteFile(path, []byte(f.body), 0o644)
}

func TestSync_SkipsMatchingETag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	f := &fakeFetcher{etag: "v1", body: tinyArtifact}

	fresh, err := Sync(context.Background(), f, "models/m.json", path)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = Sync(context.Background(), f, "models/m.json", path)
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, 1, f.downloads)

	f.etag = "v2"
	fresh, err = Sync(context.Background(), f, "models/m.json", path)
	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Equal(t, 2, f.downloads)
}

func TestLoad_FromFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	m := Load(context.Background(), Source{
		Path:    path,
		Key:     "models/m.json",
		Fetcher: &fakeFetcher{etag: "v1", body: tinyArtifact},
	}, zerolog.Nop())

	require.True(t, m.Loaded())
	assert.Equal(t, []string{"url_length"}, m.Columns())
	pred, p, err := m.Classify([]float64{10})
	require.NoError(t, err)
	assert.Equal(t, 1, pred)
	assert.InDelta(t, 0.75, p, 1e-9)
}

func TestLoad_FetchFailureFallsBackToCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(tinyArtifact), 0o644))

	m := Load(context.Background(), Source{
		Path:    path,
		Key:     "models/m.json",
		Fetcher: &fakeFetcher{statErr: errors.New("connection refused")},
	}, zerolog.Nop())
	assert.True(t, m.Loaded())
}

func TestLoad_MissingArtifactIsUnavailable(t *testing.T) {
	m := Load(context.Background(), Source{Path: filepath.Join(t.TempDir(), "none.json")}, zerolog.Nop())
	assert.False(t, m.Loaded())
	_, _, err := m.Classify([]float64{1})
	assert.ErrorIs(t, err, classification.ErrModelUnavailable)
}
