// Command server runs the verification gateway HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"govgate/internal/platform/config"
	"govgate/internal/platform/httpserver"
	"govgate/internal/platform/logger"
	"govgate/internal/platform/middleware"
	"govgate/internal/platform/postgres"
	platformredis "govgate/internal/platform/redis"
	"govgate/internal/verify/captcha"
	"govgate/internal/verify/handler"
	"govgate/internal/verify/history"
	"govgate/internal/verify/metrics"
	"govgate/internal/verify/pagehttp"
	"govgate/internal/verify/ports"
	"govgate/internal/verify/service"
	"govgate/internal/verify/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	var cache ports.Cache = store.NewMemoryCache()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = store.NewRedisCache(redisClient.Client)
		log.Info("redis cache enabled")
	} else {
		log.Info("redis not configured, using in-memory cache")
	}

	var checkHistory history.Store = history.NewNop()
	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if db != nil {
		defer db.Close()
		checkHistory = history.NewPostgres(db)
		log.Info("check history enabled")
	}

	m := metrics.New()
	deps := service.Deps{
		Pages:   pagehttp.New(pagehttp.WithLogger(log)),
		Solver:  captcha.New(cfg.Captcha, captcha.WithLogger(log)),
		Cache:   cache,
		History: checkHistory,
		Metrics: m,
		Logger:  log,
	}

	fssp := service.NewFssp(cfg.FSSP, deps)
	gibdd := service.NewGibdd(cfg.GIBDD, deps)
	passport := service.NewPassport(cfg.Passport, deps)

	verifyHandler := handler.New(fssp, gibdd, passport, checkHistory, log)
	validator := middleware.NewValidator(cfg.Server.JWTSigningKey)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, `{"status":"degraded"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.RequireAuth(validator, log))
		verifyHandler.Register(api)
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
