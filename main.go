package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a2developers/website/backend/go-services/handlers"
	"github.com/a2developers/website/backend/go-services/internal/config"
	"github.com/a2developers/website/backend/go-services/internal/database"
	"github.com/a2developers/website/backend/go-services/internal/demo/repository"
	"github.com/a2developers/website/backend/go-services/internal/demo/service"
	"github.com/a2developers/website/backend/go-services/internal/oidc"
	"github.com/a2developers/website/backend/go-services/internal/tracing"
	"github.com/a2developers/website/backend/go-services/pkg/logger"
	"github.com/a2developers/website/backend/go-services/pkg/metrics"
	"github.com/a2developers/website/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	// LOG_LEVEL from the process env until the config (and .env) is loaded
	logger.Init(os.Getenv("LOG_LEVEL"), false)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Server.IsProduction())
	logger.Info("config loaded",
		"env", cfg.Server.Environment,
		"mongo_db", cfg.MongoDB.Database,
		"redis", cfg.Redis.Addr() != "",
		"admin_oidc", cfg.Admin.OIDCIssuer != "",
		"admin_jwt", cfg.Admin.JWTSecret != "",
	)
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracer(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		logger.Warnf("tracing disabled: %v", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	// MongoDB: the supervisor owns the client and keeps reconnecting in the background
	var repo *repository.MongoRepo
	supervisor := database.NewSupervisor(
		database.MongoDialer(cfg.MongoDB.URI, cfg.MongoDB.Timeout),
		database.Policy{
			BaseDelay:   cfg.MongoDB.RetryBaseDelay,
			MaxDelay:    cfg.MongoDB.RetryMaxDelay,
			MaxAttempts: cfg.MongoDB.RetryMaxAttempts,
		},
		database.WithHealthInterval(cfg.MongoDB.HealthInterval),
		database.WithConnectHook(func(ctx context.Context, c database.Client) error {
			return repo.EnsureIndexes(ctx, c)
		}),
	)
	repo = repository.NewMongoRepo(supervisor, cfg.MongoDB.Database, cfg.MongoDB.Collection)
	svc := service.NewService(repo)

	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// Optional Redis for the shared rate limiter
	var rdb *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pctx).Err(); err != nil {
			logger.Warnf("redis ping failed (%s): %v", addr, err)
		} else {
			logger.Infof("connected to Redis at %s", addr)
		}
		cancel()
		defer func() { _ = rdb.Close() }()
	}

	var bookLimiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			bookLimiter = middleware.RedisRateLimitMiddleware(rdb, "book-demo", cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			bookLimiter = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	verifier, err := adminVerifier(ctx, cfg.Admin)
	if err != nil {
		logger.Fatalf("admin auth: %v", err)
	}

	router := handlers.NewRouter(handlers.RouterOptions{
		Demos:          svc,
		Status:         supervisor,
		Environment:    cfg.Server.Environment,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		BookLimiter:    bookLimiter,
		AdminVerifier:  verifier,
		Metrics:        promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Infof("server shutting down")
	case err := <-serverErr:
		logger.Errorf("server failed: %v", err)
		stop()
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
	// Run closes the supervisor once ctx is done
	select {
	case <-supervisorDone:
	case <-sctx.Done():
		_ = supervisor.Close(context.Background())
	}
	if err := shutdownTracing(sctx); err != nil {
		logger.Warnf("tracer shutdown: %v", err)
	}
	logger.Infof("shutdown complete")
}

// adminVerifier picks OIDC, then the shared HS256 secret. A nil verifier
// leaves the listing open; a configured but unusable one is an error.
func adminVerifier(ctx context.Context, cfg config.AdminConfig) (middleware.Verifier, error) {
	if cfg.OIDCIssuer != "" && cfg.OIDCClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCRoleClaim, cfg.OIDCRole)
		if err == nil {
			return ver, nil
		}
		if cfg.JWTSecret == "" {
			return nil, err
		}
		logger.Warnf("OIDC verifier unavailable, falling back to ADMIN_JWT_SECRET: %v", err)
	}
	if cfg.JWTSecret != "" {
		return oidc.NewHMACVerifier(cfg.JWTSecret)
	}
	return nil, nil
}
