// Package model resolves the classifier artifact at startup.
package model

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/phishy/internal/domain/classification"
	"github.com/bryanwahyu/phishy/internal/infra/model/forest"
)

// Fetcher is the object store holding published artifacts.
type Fetcher interface {
	Stat(ctx context.Context, key string) (size int64, etag string, err error)
	Download(ctx context.Context, key, localPath string) error
}

// Source says where the artifact lives. With Fetcher and Key set, Path is the
// local cache for the downloaded object.
type Source struct {
	Path    string
	Key     string
	Fetcher Fetcher
}

// Sync downloads key into path unless the cached copy already matches the
// remote ETag. It reports whether a download happened.
func Sync(ctx context.Context, f Fetcher, key, path string) (bool, error) {
	_, etag, err := f.Stat(ctx, key)
	if err != nil {
		return false, err
	}
	if cached, err := os.ReadFile(etagPath(path)); err == nil && strings.TrimSpace(string(cached)) == etag {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	if err := f.Download(ctx, key, path); err != nil {
		return false, err
	}
	if err := os.WriteFile(etagPath(path), []byte(etag), 0o644); err != nil {
		return true, fmt.Errorf("write etag: %w", err)
	}
	return true, nil
}

func etagPath(path string) string { return path + ".etag" }

// Load returns the loaded forest, or classification.Unavailable when no usable
// artifact can be found. The process keeps serving in the latter case and
// reports the model as unavailable.
func Load(ctx context.Context, src Source, log zerolog.Logger) classification.Model {
	if src.Fetcher != nil && src.Key != "" {
		fresh, err := Sync(ctx, src.Fetcher, src.Key, src.Path)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("key", src.Key).Msg("model fetch failed, trying local cache")
		case fresh:
			log.Info().Str("key", src.Key).Str("path", src.Path).Msg("model downloaded")
		}
	}

	f, err := forest.LoadFile(src.Path)
	if err != nil {
		lvl := zerolog.ErrorLevel
		if errors.Is(err, fs.ErrNotExist) {
			lvl = zerolog.WarnLevel
		}
		log.WithLevel(lvl).Err(err).Str("path", src.Path).Msg("model not loaded")
		return classification.Unavailable{}
	}
	log.Info().Str("path", src.Path).Int("trees", f.Trees()).Strs("columns", f.Columns()).Msg("model loaded")
	return f
}
