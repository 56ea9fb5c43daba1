package classification

import (
	"errors"
	"math"
)

// ErrModelUnavailable is returned by every call on a model that was not loaded.
var ErrModelUnavailable = errors.New("model unavailable")

// Label enum
type Label string

const (
	LabelLegitimate Label = "legitimate"
	LabelPhishing   Label = "phishing"
)

// LabelOf maps a binary prediction to its label; 1 is phishing.
func LabelOf(prediction int) Label {
	if prediction == 1 {
		return LabelPhishing
	}
	return LabelLegitimate
}

// Model port. Columns is the ordered feature list fixed at training time;
// Classify takes a vector aligned to it and returns the predicted class and
// the probability of the positive (phishing) class.
type Model interface {
	Columns() []string
	Classify(aligned []float64) (prediction int, probability float64, err error)
	Loaded() bool
}

// Snapshotter is a Model whose artifact can be replaced while serving.
// Current returns the artifact in effect, so Columns and Classify are read
// from the same one.
type Snapshotter interface {
	Current() Model
}

// Resolve pins m to a single artifact for the duration of one call.
func Resolve(m Model) Model {
	if s, ok := m.(Snapshotter); ok {
		return s.Current()
	}
	return m
}

// Result value object
type Result struct {
	URL        string  `json:"url"`
	Prediction int     `json:"prediction"`
	Status     Label   `json:"status"`
	Confidence float64 `json:"confidence"`
}

// NewResult builds a Result; confidence is the positive-class probability as
// a percentage rounded to two decimals.
func NewResult(url string, prediction int, probability float64) Result {
	return Result{
		URL:        url,
		Prediction: prediction,
		Status:     LabelOf(prediction),
		Confidence: Confidence(probability),
	}
}

// Confidence converts a probability in [0,1] to a percentage in [0,100].
func Confidence(probability float64) float64 {
	if math.IsNaN(probability) || probability < 0 {
		probability = 0
	}
	if probability > 1 {
		probability = 1
	}
	return math.Round(probability*100*100) / 100
}

// Unavailable stands in for a model artifact that failed to load.
type Unavailable struct{}

func (Unavailable) Columns() []string { return nil }

func (Unavailable) Classify([]float64) (int, float64, error) {
	return 0, 0, ErrModelUnavailable
}

func (Unavailable) Loaded() bool { return false }
