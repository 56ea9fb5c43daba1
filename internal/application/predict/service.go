package predict

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/phishy/internal/domain/classification"
	"github.com/bryanwahyu/phishy/internal/domain/features"
)

// ErrEmptyURL is returned when no URL was supplied.
var ErrEmptyURL = errors.New("no url provided")

// Auditor keeps a best-effort trail of classifications.
type Auditor interface {
	Record(url string, label classification.Label) error
}

// Recorder receives one observation per prediction attempt.
type Recorder interface {
	ObservePrediction(label classification.Label, err error)
}

// Service classifies URLs with the loaded model.
// Safe for concurrent use; the model is never mutated after load.
type Service struct {
	Model   classification.Model
	Audit   Auditor
	Metrics Recorder
	Log     zerolog.Logger
}

// Predict extracts the feature vector of raw, aligns it to the model's
// columns and classifies it. The returned URL is raw as given.
func (s *Service) Predict(ctx context.Context, raw string) (classification.Result, error) {
	res, err := s.predict(ctx, raw)
	if s.Metrics != nil {
		s.Metrics.ObservePrediction(res.Status, err)
	}
	return res, err
}

func (s *Service) predict(_ context.Context, raw string) (classification.Result, error) {
	if strings.TrimSpace(raw) == "" {
		return classification.Result{}, ErrEmptyURL
	}
	if s.Model == nil {
		return classification.Result{}, classification.ErrModelUnavailable
	}
	m := classification.Resolve(s.Model)
	if !m.Loaded() {
		return classification.Result{}, classification.ErrModelUnavailable
	}

	vec, err := features.ExtractChecked(raw)
	if err != nil {
		// zero vector still gets classified
		s.Log.Debug().Err(err).Str("url", raw).Msg("feature extraction fell back to zero vector")
	}

	pred, prob, err := m.Classify(features.Align(vec, m.Columns()))
	if err != nil {
		return classification.Result{}, err
	}
	res := classification.NewResult(raw, pred, prob)

	if s.Audit != nil {
		if err := s.Audit.Record(raw, res.Status); err != nil {
			s.Log.Warn().Err(err).Str("url", raw).Msg("failed to log url classification")
		}
	}
	return res, nil
}
