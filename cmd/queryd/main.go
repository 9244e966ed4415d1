package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/querystate/internal/config"
	dbRedis "github.com/kailas-cloud/querystate/internal/db/redis"
	"github.com/kailas-cloud/querystate/internal/domain/view"
	logpkg "github.com/kailas-cloud/querystate/internal/logger"
	"github.com/kailas-cloud/querystate/internal/metrics"
	savedrepo "github.com/kailas-cloud/querystate/internal/repository/saved"
	chiTransport "github.com/kailas-cloud/querystate/internal/transport/chi"
	"github.com/kailas-cloud/querystate/internal/usecase/health"
	queryuc "github.com/kailas-cloud/querystate/internal/usecase/query"
	saveduc "github.com/kailas-cloud/querystate/internal/usecase/saved"
	"github.com/kailas-cloud/querystate/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting querystate API server",
		zap.Stringer("build", version.Get()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("views", len(cfg.Views)),
		zap.Bool("saved_searches", cfg.SavedEnabled()),
	)

	views, err := buildViews(cfg.Views)
	if err != nil {
		logger.Fatal("Invalid view configuration", zap.Error(err))
	}

	// Metrics are registered explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterQueryMetrics()

	querySvc, err := queryuc.New(views, cfg.TemplateCache.Size)
	if err != nil {
		logger.Fatal("Failed to create query service", zap.Error(err))
	}
	querySvc.WithRecorder(metrics.QueryRecorder{})

	// Saved searches need a database; without one their routes answer 501.
	// Pass nil interfaces, not typed nil pointers, to the health service.
	var savedSvc *saveduc.Service
	var pinger health.DBPinger
	if cfg.SavedEnabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(context.Background(), readiness); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

		repo := savedrepo.New(store, cfg.Storage.KeyPrefix).
			WithTTL(time.Duration(cfg.Saved.TTLHours) * time.Hour)
		savedSvc = saveduc.New(repo, querySvc).WithMaxPerView(cfg.Saved.MaxPerView)
		pinger = store
	}

	healthSvc := health.New(pinger, querySvc)

	server := chiTransport.NewServer(querySvc, savedSvc, healthSvc, logger).
		WithListLimit(cfg.Saved.ListLimit)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildViews converts configured views into domain views.
func buildViews(cfgViews map[string]config.ViewConfig) ([]view.View, error) {
	out := make([]view.View, 0, len(cfgViews))
	for name, vc := range cfgViews {
		v, err := view.New(name, vc.Template, vc.Enforced, vc.APIParams, vc.IDField, vc.AnchorField)
		if err != nil {
			return nil, fmt.Errorf("view %s: %w", name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			ctx := logpkg.With(logpkg.ContextWithLogger(r.Context(), logger), zap.String("request_id", requestID))
			reqLogger := logpkg.FromContext(ctx)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("view", chi.URLParam(r, "view")),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
