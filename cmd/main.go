package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/estatehub/auth-service/internal/api/http/handler"
	"github.com/estatehub/auth-service/internal/api/http/middleware"
	"github.com/estatehub/auth-service/internal/api/http/router"
	"github.com/estatehub/auth-service/internal/config"
	"github.com/estatehub/auth-service/internal/logger"
	"github.com/estatehub/auth-service/internal/metrics"
	"github.com/estatehub/auth-service/internal/rate"
	"github.com/estatehub/auth-service/internal/repository/postgres"
	"github.com/estatehub/auth-service/internal/security"
	"github.com/estatehub/auth-service/internal/service"
	"github.com/estatehub/auth-service/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)

	hasher := security.NewHasher(security.DefaultHashParams())
	issuer, err := token.NewJWT(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTTL())
	if err != nil {
		logger.Fatal("failed to configure token issuer", "error", err)
	}

	authService := service.NewAuth(userRepo, refreshTokenRepo, hasher, issuer, cfg.JWT.RefreshTTL(), logger)

	limiter := newLimiter(ctx, cfg.RateLimit, logger)

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	authHandler := handler.NewAuth(authService, limiter, logger)
	authenticate := middleware.NewAuthenticate(issuer, logger)
	engine := router.New(authHandler, authenticate, registry, logger).Register()

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting server on", "address", srv.Addr)

		var err error
		if cfg.HTTP.EnableHTTPS {
			err = srv.ListenAndServeTLS(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Addr)
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// newLimiter prefers the shared redis limiter when an address is configured
// and reachable, and falls back to the process-local one otherwise.
func newLimiter(ctx context.Context, cfg config.RateLimit, logger *logger.Logger) rate.Limiter {
	if cfg.RedisAddr == "" {
		return rate.NewMemory(cfg.Limit, cfg.Window)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("redis unreachable, using in-memory rate limiter", "error", err, "address", cfg.RedisAddr)
		_ = client.Close()
		return rate.NewMemory(cfg.Limit, cfg.Window)
	}

	return rate.NewRedisLimiter(client, cfg.Limit, cfg.Window, "")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
