package apikeys

import (
	"context"

	"github.com/rs/zerolog"

	domain "github.com/bryanwahyu/phishy/internal/domain/apikeys"
)

// Service manages the single reputation-service API key.
type Service struct {
	Repo domain.Repository
	Log  zerolog.Logger
}

// Save replaces the stored key.
func (s *Service) Save(ctx context.Context, key string) error {
	k, err := domain.Validate(key)
	if err != nil {
		return err
	}
	if err := s.Repo.Save(ctx, k); err != nil {
		return err
	}
	s.Log.Info().Msg("api key saved")
	return nil
}

// Get reports found=false when no key has been configured.
func (s *Service) Get(ctx context.Context) (domain.Record, bool, error) {
	return s.Repo.Get(ctx)
}
