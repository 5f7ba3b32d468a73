package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pinmap/internal/captcha"
	"pinmap/internal/platform/config"
	"pinmap/internal/platform/httpserver"
	"pinmap/internal/platform/logger"
	"pinmap/internal/platform/metrics"
	"pinmap/internal/platform/middleware"
	platformredis "pinmap/internal/platform/redis"
	"pinmap/internal/registration/handler"
	"pinmap/internal/registration/service"
	"pinmap/internal/registration/store"
	"pinmap/internal/verify"
	"pinmap/internal/verify/cache"
	"pinmap/internal/verify/providers"
	"pinmap/pkg/platform/audit"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Accounts: postgres when configured, otherwise in-process.
	var accounts service.AccountStore
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("ensure schema", "error", err)
			os.Exit(1)
		}
		accounts = pg
	} else {
		log.Warn("DATABASE_URL not set, using in-memory account store")
		accounts = store.NewInMemory()
	}

	// Verdict cache: shared via redis when configured, otherwise per-process.
	var verdicts cache.Store = cache.NewInMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		verdicts = cache.NewRedis(redisClient, cfg.Redis.VerdictTTL, cache.WithLogger(log))
	}

	var chain []providers.Provider
	for _, p := range []struct {
		name string
		url  string
	}{
		{"primary", cfg.Verify.PrimaryURL},
		{"secondary", cfg.Verify.SecondaryURL},
		{"mirror", cfg.Verify.MirrorURL},
	} {
		if p.url != "" {
			chain = append(chain, providers.NewHTTPProvider(p.name, p.url, cfg.Verify.LookupTimeout))
		}
	}
	resolver := verify.NewResolver(verdicts, chain,
		verify.WithLogger(log),
		verify.WithMetrics(m),
		verify.WithStrategyDelay(cfg.Verify.StrategyDelay),
	)

	captchaClient := captcha.NewClient(cfg.Captcha.VerifyURL, cfg.Captcha.Secret, cfg.Captcha.Timeout)

	auditor, err := audit.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, audit.WithLogger(log))
	if err != nil {
		log.Error("connect kafka", "error", err)
		os.Exit(1)
	}

	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAudit(auditor),
	}
	if cfg.RequireHandle {
		svcOpts = append(svcOpts, service.WithRequiredHandle())
	}
	svc := service.New(accounts, captchaClient, resolver, svcOpts...)

	limiter := middleware.NewRateLimiter(cfg.RegistrationRateLimit, cfg.RegistrationRateWindow)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log).Register(router, limiter.Limit(middleware.ClientIP))

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "providers", len(chain))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := auditor.Close(shutdownCtx); err != nil {
		log.Error("audit flush failed", "error", err)
	}
}
