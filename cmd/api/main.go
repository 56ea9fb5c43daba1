package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanwahyu/phishy/internal/application"
	appkeys "github.com/bryanwahyu/phishy/internal/application/apikeys"
	"github.com/bryanwahyu/phishy/internal/application/predict"
	appscans "github.com/bryanwahyu/phishy/internal/application/scans"
	"github.com/bryanwahyu/phishy/internal/config"
	"github.com/bryanwahyu/phishy/internal/infra/audit"
	"github.com/bryanwahyu/phishy/internal/infra/db/open"
	"github.com/bryanwahyu/phishy/internal/infra/httpserver"
	"github.com/bryanwahyu/phishy/internal/infra/model"
	"github.com/bryanwahyu/phishy/internal/infra/storage"
	"github.com/bryanwahyu/phishy/internal/logging"
	"github.com/bryanwahyu/phishy/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		boot := logging.New("info", false)
		boot.Fatal().Err(err).Str("path", path).Msg("config load error")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := open.Connect(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("database connect error")
	}
	defer store.Close()
	log.Info().Str("driver", store.Driver).Msg("database ready")

	src := model.Source{Path: cfg.Model.Path, Key: cfg.Model.ObjectKey}
	if cfg.Model.ObjectKey != "" {
		objects, err := storage.New(ctx, storage.Options{
			Endpoint:  cfg.Minio.Endpoint,
			Region:    cfg.Minio.Region,
			Bucket:    cfg.Minio.BucketName,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			UseSSL:    cfg.Minio.UseSSL,
		})
		if err != nil {
			log.Warn().Err(err).Msg("minio init error, using local model cache")
		} else {
			src.Fetcher = objects
		}
	}
	clf := model.Load(ctx, src, log)
	if cfg.Model.Watch {
		holder := model.NewHolder(clf)
		if err := model.Watch(ctx, cfg.Model.Path, holder, 0, log); err != nil {
			log.Warn().Err(err).Str("path", cfg.Model.Path).Msg("model watch disabled")
		}
		clf = holder
	}

	var auditor predict.Auditor = audit.Discard{}
	if cfg.Audit.Enabled {
		auditor = audit.NewCSVLog(cfg.Audit.Dir)
	}

	metrics := middleware.NewMetrics()
	limiter := middleware.NewRateLimiter(cfg.Server.PredictBurst, cfg.Server.PredictRate)
	defer limiter.Close()

	handler := httpserver.NewRouter(httpserver.Deps{
		Predict: &predict.Service{Model: clf, Audit: auditor, Metrics: metrics, Log: log},
		Scans:   &appscans.Service{Repo: store.Scans, Clock: application.SystemClock{}, Log: log},
		APIKeys: &appkeys.Service{Repo: store.APIKeys, Log: log},
		Model:   clf,
		Checkers: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: store.DB},
			"model":    &middleware.ModelHealthChecker{Model: clf},
		},
		Metrics:     metrics,
		Limiter:     limiter,
		CORSOrigins: cfg.Server.CORSOrigins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// run server
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("model_loaded", clf.Loaded()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		log.Error().Err(err).Msg("server error")
	}
	log.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
