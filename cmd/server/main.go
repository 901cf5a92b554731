package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sareepos/backend/internal/cache"
	"sareepos/backend/internal/config"
	"sareepos/backend/internal/httpapi"
	"sareepos/backend/internal/logger"
	"sareepos/backend/internal/media"
	"sareepos/backend/internal/metrics"
	"sareepos/backend/internal/report"
	"sareepos/backend/internal/service"
	"sareepos/backend/internal/store"
	"sareepos/backend/internal/store/memory"
	pgstore "sareepos/backend/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "sareepos-api",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
		WarnStack:   cfg.LogWarnStack,
	})
	ctx := context.Background()

	if err := validateSecurityConfig(cfg); err != nil {
		logg.Error(ctx, "invalid security configuration", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "server exited", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logg *logger.Logger) error {
	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 3)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(startCtx, cfg.DatabaseURL, pgstore.PoolOptions{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnLifetime,
		})
		if err != nil {
			return fmt.Errorf("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback: %w", err)
		}
		closers = append(closers, pg.Close)
		if cfg.AutoMigrate {
			if err := pg.Migrate(startCtx, "up"); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			logg.Info(ctx, "migrations applied")
		}
		repo = pg
		logg.Info(logg.WithField(ctx, "repository", "postgres"), "repository ready")
	} else {
		repo = memory.NewSeeded()
		logg.Info(logg.WithField(ctx, "repository", "memory"), "repository ready")
	}

	reportCache, cacheKind, closeCache := newReportCache(startCtx, cfg, cfg.DatabaseURL != "", logg)
	if closeCache != nil {
		closers = append(closers, closeCache)
	}
	logg.Info(logg.WithField(ctx, "cache", cacheKind), "report cache ready")

	uploader := media.Uploader(media.NoopUploader{})
	if strings.TrimSpace(cfg.GCSCredentialsJSON) != "" {
		gcs, err := media.NewGCSUploader(startCtx, cfg.GCSBucket, cfg.GCSCredentialsJSON, cfg.ImageMaxWidth)
		if err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "gcs unavailable, items will be saved without images")
		} else {
			uploader = gcs
			closers = append(closers, gcs.Close)
			logg.Info(logg.WithField(ctx, "bucket", cfg.GCSBucket), "image uploads enabled")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	engine := report.NewEngine(repo, report.Options{
		Cache:    reportCache,
		CacheTTL: cfg.ReportCacheTTL,
		Location: cfg.Location(),
		Logger:   logg,
		Metrics:  appMetrics,
	})
	svc := service.New(repo, engine, service.Options{
		Uploader: uploader,
		Logger:   logg,
		Metrics:  appMetrics,
	})
	if _, err := svc.EnsurePartners(startCtx); err != nil {
		return fmt.Errorf("seed partners: %w", err)
	}

	auth, err := httpapi.NewAuthManager(cfg.AuthSecret, cfg.SessionTTL, cfg.PartnerPasswords())
	if err != nil {
		return err
	}
	api := httpapi.New(svc, auth, httpapi.Options{
		AllowedOrigin:  cfg.AllowedOrigin,
		SecureCookies:  cfg.SecureCookies,
		Logger:         logg,
		Metrics:        appMetrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", cfg.Address()), "saree POS backend listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-sig:
	case runErr = <-serverErr:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "shutdown error", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logg.Error(ctx, "close error", err)
		}
	}

	logg.Info(ctx, "server stopped")
	return runErr
}

// newReportCache returns the report cache, its kind for logging and an optional closer.
// Without Redis a shared store gets no report cache. The process-local cache
// backs the in-memory store only.
func newReportCache(ctx context.Context, cfg config.Config, sharedStore bool, logg *logger.Logger) (cache.ReportCache, string, func() error) {
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis unavailable, skipping redis report cache")
			_ = redisCache.Close()
		} else {
			return redisCache, "redis", redisCache.Close
		}
	}
	if sharedStore {
		return cache.NoopReportCache{}, "none", nil
	}
	return cache.NewMemoryReportCache(), "memory", nil
}

var weakPasswords = map[string]bool{
	"password": true, "password1": true, "12345678": true, "123456789": true,
	"qwerty123": true, "iloveyou": true, "admin123": true, "changeme": true,
	"putty123": true, "sony1234": true, "saree123": true,
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	for _, check := range []struct {
		key      string
		password string
	}{
		{"PUTTY_PASSWORD", cfg.PuttyPassword},
		{"SONY_PASSWORD", cfg.SonyPassword},
	} {
		if len(check.password) < 8 {
			return fmt.Errorf("%s must be set and at least 8 characters", check.key)
		}
		if weakPasswords[strings.ToLower(check.password)] {
			return fmt.Errorf("%s is too weak: common password not allowed", check.key)
		}
	}
	return nil
}
