package model

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/phishy/internal/domain/classification"
	"github.com/bryanwahyu/phishy/internal/infra/model/forest"
)

// Holder serves whichever artifact was installed last. Readers never block a
// reload and a reload never mutates an artifact in use.
type Holder struct {
	cur     atomic.Pointer[slot]
	reloads atomic.Int64
}

type slot struct{ m classification.Model }

func NewHolder(m classification.Model) *Holder {
	h := &Holder{}
	h.Swap(m)
	return h
}

func (h *Holder) Swap(m classification.Model) {
	if m == nil {
		m = classification.Unavailable{}
	}
	h.cur.Store(&slot{m: m})
}

func (h *Holder) Current() classification.Model { return h.cur.Load().m }

func (h *Holder) Columns() []string { return h.Current().Columns() }

func (h *Holder) Classify(aligned []float64) (int, float64, error) {
	return h.Current().Classify(aligned)
}

func (h *Holder) Loaded() bool { return h.Current().Loaded() }

// Reloads counts successful swaps made by Watch.
func (h *Holder) Reloads() int64 { return h.reloads.Load() }

// Watch reloads path into h whenever it is written, created or renamed into
// place, until ctx ends. The parent directory is watched so editors and
// atomic renames are seen. An artifact that fails to load is logged and the
// previous one keeps serving.
func Watch(ctx context.Context, path string, h *Holder, debounce time.Duration, log zerolog.Logger) error {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer w.Close()
		timer := time.NewTimer(debounce)
		timer.Stop()

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				timer.Reset(debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("model watcher error")
			case <-timer.C:
				f, err := forest.LoadFile(target)
				if err != nil {
					log.Error().Err(err).Str("path", target).Msg("model reload failed, keeping previous")
					continue
				}
				h.Swap(f)
				h.reloads.Add(1)
				log.Info().Str("path", target).Int("trees", f.Trees()).Msg("model reloaded")
			}
		}
	}()
	return nil
}
