package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/bryanwahyu/phishy/internal/domain/classification"
)

// HealthChecker is one dependency probe.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DatabaseHealthChecker pings the store with a short deadline.
type DatabaseHealthChecker struct {
	DB Pinger
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return d.DB.PingContext(ctx)
}

// ModelHealthChecker fails while no classifier artifact is loaded.
type ModelHealthChecker struct {
	Model classification.Model
}

func (m *ModelHealthChecker) Check(context.Context) error {
	if m.Model == nil || !m.Model.Loaded() {
		return classification.ErrModelUnavailable
	}
	return nil
}

// HealthStatus is the /healthz body.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus is one dependency's outcome.
type CheckStatus struct {
	Status    string  `json:"status"`
	Message   string  `json:"message,omitempty"`
	LatencyMS float64 `json:"latencyMs"`
}

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// RunChecks runs every checker concurrently and reports whether all passed.
func RunChecks(ctx context.Context, checkers map[string]HealthChecker) (map[string]CheckStatus, bool) {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]CheckStatus, len(checkers))
		ok  = true
	)
	for name, c := range checkers {
		wg.Add(1)
		go func(name string, c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			st := CheckStatus{Status: statusHealthy, LatencyMS: float64(time.Since(start).Microseconds()) / 1000}
			if err != nil {
				st.Status, st.Message = statusUnhealthy, err.Error()
			}

			mu.Lock()
			out[name] = st
			if err != nil {
				ok = false
			}
			mu.Unlock()
		}(name, c)
	}
	wg.Wait()
	return out, ok
}

// HealthHandler serves the aggregate of checkers; any failure is a 503.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks, ok := RunChecks(ctx, checkers)
		health := HealthStatus{Status: statusHealthy, Timestamp: time.Now().UTC(), Checks: checks}
		code := http.StatusOK
		if !ok {
			health.Status, code = statusUnhealthy, http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(health)
	}
}
