package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	appkeys "github.com/bryanwahyu/phishy/internal/application/apikeys"
	"github.com/bryanwahyu/phishy/internal/application/predict"
	appscans "github.com/bryanwahyu/phishy/internal/application/scans"
	"github.com/bryanwahyu/phishy/internal/domain/apikeys"
	"github.com/bryanwahyu/phishy/internal/domain/classification"
	"github.com/bryanwahyu/phishy/internal/domain/persist"
	domain "github.com/bryanwahyu/phishy/internal/domain/scans"
	"github.com/bryanwahyu/phishy/internal/middleware"
)

const maxBodyBytes = 1 << 20

// Deps is everything the router serves.
type Deps struct {
	Predict  *predict.Service
	Scans    *appscans.Service
	APIKeys  *appkeys.Service
	Model    classification.Model
	Checkers map[string]middleware.HealthChecker
	Metrics  *middleware.Metrics
	// Limiter throttles /predict; nil disables throttling.
	Limiter     *middleware.RateLimiter
	CORSOrigins []string
	Log         zerolog.Logger
}

type Router struct {
	predictSvc *predict.Service
	scansSvc   *appscans.Service
	keysSvc    *appkeys.Service
	model      classification.Model
	log        zerolog.Logger
}

func NewRouter(d Deps) http.Handler {
	r := &Router{
		predictSvc: d.Predict,
		scansSvc:   d.Scans,
		keysSvc:    d.APIKeys,
		model:      d.Model,
		log:        d.Log,
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = middleware.NewMetrics()
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Logging(d.Log))
	mux.Use(metrics.Middleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	mux.Get("/", r.handleHome)
	mux.Get("/home", r.handleHome)
	mux.Get("/health", r.handleHealth)
	mux.Get("/healthz", middleware.HealthHandler(d.Checkers))
	mux.Get("/metrics", metrics.Handler)

	mux.Group(func(rt chi.Router) {
		if d.Limiter != nil {
			rt.Use(d.Limiter.Middleware)
		}
		rt.Post("/predict", r.wrap(r.handlePredict))
		rt.Get("/predict", r.wrap(r.handlePredict))
	})

	mux.Route("/api/storage", func(rt chi.Router) {
		rt.Get("/urls", r.wrap(r.handleListURLs))
		rt.Post("/url-result", r.wrap(r.handleSaveResult))
		rt.Get("/url-result", r.wrap(r.handleGetResult))
		rt.Get("/url-result/*", r.wrap(r.handleGetResult))
		rt.Delete("/url-result", r.wrap(r.handleDeleteAll))
		rt.Post("/api-key", r.wrap(r.handleSaveAPIKey))
		rt.Get("/api-key", r.wrap(r.handleGetAPIKey))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks client input errors that have no domain sentinel.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var br badRequest
		switch {
		case errors.As(err, &br),
			errors.Is(err, predict.ErrEmptyURL),
			errors.Is(err, domain.ErrEmptyResult),
			errors.Is(err, domain.ErrScanTimeRange),
			errors.Is(err, domain.ErrInvalidURL),
			errors.Is(err, apikeys.ErrInvalidKey):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, classification.ErrModelUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Model is not loaded!")
		case errors.Is(err, persist.ErrStorage):
			r.log.Error().Err(err).Str("request_id", middleware.GetRequestID(req.Context())).Msg("storage failure")
			writeError(w, http.StatusInternalServerError, "storage failure")
		default:
			r.log.Error().Err(err).Str("request_id", middleware.GetRequestID(req.Context())).Msg("request failed")
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, req *http.Request, dst any) error {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		return badRequest{fmt.Errorf("invalid JSON body: %w", err)}
	}
	return nil
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GET / and /home
func (r *Router) handleHome(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{"message": "Phishy API is running."})
}

// GET /health
func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	loaded := r.model != nil && r.model.Loaded()
	if !loaded {
		_ = writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":       "error",
			"message":      "Model is not loaded",
			"api":          "ML Model",
			"model_loaded": false,
		})
		return
	}
	_ = writeJSON(w, http.StatusOK, map[string]any{
		"status":       "running",
		"message":      "ML Model API is running",
		"api":          "ML Model",
		"model_loaded": true,
	})
}

// POST /predict {"url": "..."}; GET /predict?url=...
func (r *Router) handlePredict(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL string `json:"url"`
	}
	if req.Method == http.MethodGet {
		body.URL = req.URL.Query().Get("url")
	} else if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	if strings.TrimSpace(body.URL) == "" {
		return predict.ErrEmptyURL
	}
	if err := middleware.ValidateURL(body.URL); err != nil {
		return badRequest{err}
	}

	res, err := r.predictSvc.Predict(req.Context(), body.URL)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /api/storage/urls
func (r *Router) handleListURLs(w http.ResponseWriter, req *http.Request) error {
	list, err := r.scansSvc.List(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"urls": list, "total": len(list)})
}

// scanResultBody is the wire form of a combined result; scanTime may be any
// ISO-8601 timestamp, zone-less values are taken as UTC.
type scanResultBody struct {
	URL         string                   `json:"url"`
	ScanTime    string                   `json:"scanTime"`
	VirusTotal  *domain.ReputationResult `json:"virusTotal"`
	MLModel     *domain.MLResult         `json:"mlModel"`
	IsMalicious bool                     `json:"isMalicious"`
	ScanSuccess bool                     `json:"scanSuccess"`
}

var scanTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseScanTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range scanTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, badRequest{fmt.Errorf("invalid scanTime %q", s)}
}

// POST /api/storage/url-result
func (r *Router) handleSaveResult(w http.ResponseWriter, req *http.Request) error {
	var body scanResultBody
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateURL(body.URL); err != nil {
		return badRequest{err}
	}
	at, err := parseScanTime(body.ScanTime)
	if err != nil {
		return err
	}

	if _, err := r.scansSvc.Save(req.Context(), domain.CombinedScanResult{
		URL:         body.URL,
		ScanTime:    at,
		Reputation:  body.VirusTotal,
		ML:          body.MLModel,
		IsMalicious: body.IsMalicious,
		ScanSuccess: body.ScanSuccess,
	}); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Scan result stored successfully"})
}

// GET /api/storage/url-result/{url} or /api/storage/url-result?url=
func (r *Router) handleGetResult(w http.ResponseWriter, req *http.Request) error {
	target := req.URL.Query().Get("url")
	if target == "" {
		target = chi.URLParam(req, "*")
		// chi matched on the still-escaped path
		if req.URL.RawPath != "" {
			if u, err := url.PathUnescape(target); err == nil {
				target = u
			}
		}
	}
	if strings.TrimSpace(target) == "" {
		return domain.ErrInvalidURL
	}

	res, found, err := r.scansSvc.Get(req.Context(), target)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"url":        target,
		"scanResult": res,
		"found":      found,
	})
}

// DELETE /api/storage/url-result
func (r *Router) handleDeleteAll(w http.ResponseWriter, req *http.Request) error {
	if err := r.scansSvc.Clear(req.Context()); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "All URL scan results deleted"})
}

// POST /api/storage/api-key {"apiKey": "..."}
func (r *Router) handleSaveAPIKey(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		APIKey string `json:"apiKey"`
	}
	if err := decodeBody(w, req, &body); err != nil {
		return err
	}
	if err := r.keysSvc.Save(req.Context(), middleware.SanitizeString(body.APIKey)); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "API key saved successfully"})
}

// GET /api/storage/api-key
func (r *Router) handleGetAPIKey(w http.ResponseWriter, req *http.Request) error {
	rec, found, err := r.keysSvc.Get(req.Context())
	if err != nil {
		return err
	}
	if !found {
		return writeJSON(w, http.StatusOK, map[string]any{
			"apiKey":      nil,
			"apiKeyValid": false,
			"message":     "No API key configured",
		})
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"apiKey":      rec.APIKey,
		"apiKeyValid": true,
		"message":     "API key loaded",
	})
}
