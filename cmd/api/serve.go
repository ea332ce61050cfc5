package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/auth-service/internal/api/http"
	"github.com/spec-kit/auth-service/internal/api/http/handlers"
	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/observability"
	"github.com/spec-kit/auth-service/internal/persistence"
	"github.com/spec-kit/auth-service/internal/repository"
	"github.com/spec-kit/auth-service/internal/service"
	"github.com/spec-kit/auth-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	lifetime := repository.ParseLifetime(cfg.Store.Lifetime)
	store := repository.NewProvider(lifetime)
	logger.Info("user store configured",
		zap.String("lifetime", string(lifetime)),
		zap.String("comment", cfg.Store.Comment))
	if lifetime != repository.LifetimeSingleton {
		logger.Warn("accounts do not outlive a request with this store lifetime; set USER_REPOSITORY_LIFETIME=Singleton to keep them")
	}

	var (
		rds *persistence.Redis
		rdb *redis.Client
	)
	if cfg.Notification.Channel == config.ChannelRedis {
		rds = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer rds.Close()
		rdb = rds.Client
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifications, err := worker.StartNotificationWorker(cfg.Notification, dispatcher, rdb, logger)
	if err != nil {
		return fmt.Errorf("start notification worker: %w", err)
	}
	defer notifications.Close()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Users:  store,
		Events: dispatcher,
		Logger: logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager())
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), store)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, rds),
		Auth:           handlers.NewAuthHandler(authService, logger),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(shutdownTimeout)
}
