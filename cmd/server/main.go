package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/atmx/bingo-engine/internal/cache"
	"github.com/atmx/bingo-engine/internal/config"
	"github.com/atmx/bingo-engine/internal/lottery"
	"github.com/atmx/bingo-engine/internal/metrics"
	mw "github.com/atmx/bingo-engine/internal/middleware"
	"github.com/atmx/bingo-engine/internal/model"
	"github.com/atmx/bingo-engine/internal/prize"
	"github.com/atmx/bingo-engine/internal/refresh"
	"github.com/atmx/bingo-engine/internal/settle"
	"github.com/atmx/bingo-engine/internal/source"
	"github.com/atmx/bingo-engine/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	var cleanup []func()
	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Draw cache ---
	var drawCache cache.Cache[model.FetchResult]
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opt)
		cleanup = append(cleanup, func() { rdb.Close() })
		drawCache = cache.NewRedisCache[model.FetchResult](rdb, cfg.CachePrefix)
		slog.Info("Redis draw cache enabled", "prefix", cfg.CachePrefix)
	} else {
		drawCache = cache.NewMemoryCache[model.FetchResult](cfg.CacheTTL)
	}

	// --- Draw sources ---
	strategies, err := source.Select(cfg.Strategies)
	if err != nil {
		slog.Error("invalid STRATEGIES", "err", err)
		os.Exit(1)
	}
	// The per-attempt timeout comes from the aggregator; the client only
	// bounds a stuck connection.
	client := &http.Client{Timeout: 2 * cfg.FetchTimeout}
	aggregator := source.New(client, strategies, source.WithTimeout(cfg.FetchTimeout))
	// A cold request may walk every strategy; route and job deadlines follow.
	sweepTimeout := cfg.SweepTimeout(len(strategies))
	slog.Info("draw sources configured", "strategies", aggregator.Strategies(), "timeout", cfg.FetchTimeout, "sweep_timeout", sweepTimeout)

	// --- Settlement ---
	engine, err := settle.NewEngine(prize.Default())
	if err != nil {
		slog.Error("invalid prize tables", "err", err)
		os.Exit(1)
	}

	if cfg.AllowSynthetic {
		slog.Warn("synthetic draw fallback enabled; sample draws are served when every source fails")
	}
	svc := lottery.NewService(aggregator, drawCache, engine, store.NewMemoryStore(), lottery.Options{
		CacheTTL:       cfg.CacheTTL,
		BonusActive:    cfg.BonusActive,
		AllowSynthetic: cfg.AllowSynthetic,
	})

	// --- Background refresh ---
	if cfg.RefreshSchedule != "" {
		scheduler, err := refresh.New(cfg.RefreshSchedule, sweepTimeout, svc.Warm)
		if err != nil {
			slog.Error("invalid REFRESH_SCHEDULE", "err", err)
			os.Exit(1)
		}
		scheduler.Start()
		go scheduler.RunNow(context.Background())
		cleanup = append(cleanup, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := scheduler.Stop(ctx); err != nil {
				slog.Warn("refresh scheduler stop", "err", err)
			}
		})
	}

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(max(30*time.Second, sweepTimeout)))
	r.Use(metrics.Middleware)
	r.Use(mw.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"bingo-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			limiter := mw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)
			stop := make(chan struct{})
			limiter.StartCleanup(time.Minute, stop)
			cleanup = append(cleanup, func() { close(stop) })
			r.Use(limiter.Handler)
		}
		svc.Routes(r)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: max(60*time.Second, sweepTimeout+10*time.Second),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("bingo-engine listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down bingo-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("bingo-engine stopped")
}
