package scans

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/phishy/internal/application"
	domain "github.com/bryanwahyu/phishy/internal/domain/scans"
)

// Service implements use-cases untuk combined scan results.
// Safe for concurrent use; per-URL atomicity comes from the repository.
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
	Log   zerolog.Logger
}

// Save normalizes the URL key, derives the aggregate flags and stores r,
// replacing whatever was stored for that URL. A zero ScanTime is stamped
// with the current time.
func (s *Service) Save(ctx context.Context, r domain.CombinedScanResult) (*domain.CombinedScanResult, error) {
	key, err := domain.NormalizeURL(r.URL)
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.URL = key
	if r.ScanTime.IsZero() {
		r.ScanTime = s.now()
	}
	// microseconds are the finest precision every backend keeps
	r.ScanTime = r.ScanTime.UTC().Truncate(time.Microsecond)
	r.Derive()

	if err := s.Repo.Upsert(ctx, &r); err != nil {
		return nil, err
	}
	s.Log.Debug().Str("url", r.URL).Bool("malicious", r.IsMalicious).Msg("scan result stored")
	return &r, nil
}

// Get looks up by the normalized form of url.
func (s *Service) Get(ctx context.Context, url string) (*domain.CombinedScanResult, bool, error) {
	key, err := domain.NormalizeURL(url)
	if err != nil {
		return nil, false, err
	}
	return s.Repo.GetByURL(ctx, key)
}

// List returns every stored result, most recently scanned first.
func (s *Service) List(ctx context.Context) ([]domain.Summary, error) {
	list, err := s.Repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Summary{}
	}
	return list, nil
}

// Clear removes every stored result.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.Repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear scan results: %w", err)
	}
	s.Log.Info().Msg("all scan results deleted")
	return nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}
