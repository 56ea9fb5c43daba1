package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/phishy/internal/domain/classification"
)

var teapot = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
	_, _ = w.Write([]byte("short and stout"))
})

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

func TestLogging_WritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	h := RequestID(Logging(zerolog.New(&buf))(teapot))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/predict", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "/predict", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, float64(len("short and stout")), entry["bytes"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestMetrics_CountsRequestsAndPredictions(t *testing.T) {
	m := NewMetrics()
	ok := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	bad := m.Middleware(teapot)

	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	bad.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	m.ObservePrediction(classification.LabelPhishing, nil)
	m.ObservePrediction(classification.LabelLegitimate, nil)
	m.ObservePrediction("", errors.New("boom"))

	snap := m.Snapshot()
	assert.Equal(t, uint64(3), snap["requests_total"])
	assert.Equal(t, uint64(2), snap["requests_success"])
	assert.Equal(t, uint64(1), snap["requests_failed"])
	assert.Equal(t, int64(0), snap["requests_in_progress"])
	assert.Equal(t, map[string]any{
		"phishing": uint64(1), "legitimate": uint64(1), "failed": uint64(1),
	}, snap["predictions"])

	rec := httptest.NewRecorder()
	m.Handler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"requests_total":3`)
}

type checkerFunc func(context.Context) error

func (f checkerFunc) Check(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	healthy := checkerFunc(func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{
		"database": healthy,
		"model":    &ModelHealthChecker{Model: classification.Unavailable{}},
	})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"].Status)
	assert.Equal(t, "model unavailable", body.Checks["model"].Message)

	rec = httptest.NewRecorder()
	HealthHandler(map[string]HealthChecker{"database": healthy})(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type pingFunc func(context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestDatabaseHealthChecker_HasDeadline(t *testing.T) {
	c := &DatabaseHealthChecker{DB: pingFunc(func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return nil
	})}
	assert.NoError(t, c.Check(context.Background()))
}

func TestTokenBucket_Refill(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	tb := NewTokenBucket(2, 0.5, t0)

	assert.True(t, tb.AllowAt(t0))
	assert.True(t, tb.AllowAt(t0))
	assert.False(t, tb.AllowAt(t0))
	assert.False(t, tb.AllowAt(t0.Add(time.Second)))
	assert.True(t, tb.AllowAt(t0.Add(2*time.Second)))
	assert.True(t, tb.AllowAt(t0.Add(time.Hour)))
	assert.True(t, tb.AllowAt(t0.Add(time.Hour)))
	assert.False(t, tb.AllowAt(t0.Add(time.Hour)))
}

func TestRateLimiter_PerClientIP(t *testing.T) {
	rl := NewRateLimiter(1, 0.001)
	defer rl.Close()
	h := rl.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/predict", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:5000").Code)
	second := call("10.0.0.1:5001")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1000", second.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2:5000").Code)
}

func TestRateLimiter_Prune(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Close()
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(11 * time.Minute)
	rl.Allow("b")
	rl.prune(10 * time.Minute)

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.NotContains(t, rl.buckets, "a")
	assert.Contains(t, rl.buckets, "b")
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("paypal-secure-login.verify-account.top/signin"))
	assert.NoError(t, ValidateURL("http://192.168.1.1/admin"))
	assert.Error(t, ValidateURL(" "))
	assert.Error(t, ValidateURL("http://a\x00b"))
	assert.Error(t, ValidateURL("http://example.com/"+strings.Repeat("a", MaxURLLength)))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc\tdef", SanitizeString("  a\x00b\x07c\tdef\r\n "))
}

func TestRunChecks_Concurrent(t *testing.T) {
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	blocking := checkerFunc(func(context.Context) error {
		started.Done()
		<-release
		return nil
	})
	go func() {
		started.Wait()
		close(release)
	}()

	checks, ok := RunChecks(context.Background(), map[string]HealthChecker{"a": blocking, "b": blocking})
	assert.True(t, ok)
	assert.Len(t, checks, 2)
	assert.GreaterOrEqual(t, checks["a"].LatencyMS, 0.0)
}
