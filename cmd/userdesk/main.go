package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/userdesk/userdesk/internal/app"
	"github.com/userdesk/userdesk/internal/auth"
	"github.com/userdesk/userdesk/internal/observability"
	"github.com/userdesk/userdesk/internal/platform/db"
	"github.com/userdesk/userdesk/internal/rbac"
	"github.com/userdesk/userdesk/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{
		MaxConns:        cfg.PGMaxConns,
		MinConns:        cfg.PGMinConns,
		MaxConnLifetime: cfg.PGConnLifetime,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.DBMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Error("apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, auth.WithSessionTTL(cfg.SessionTTL))

	rbacService := rbac.NewService(rbac.NewRepository(pool))

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(logger, usersRepo, rbacService, cfg.StrictRoles)

	authHandler := auth.NewHandler(logger, authService, rbacService, metrics)
	usersHandler := users.NewHandler(logger, usersService, rbacService)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		Pool:         pool,
		AuthHandler:  authHandler,
		AuthService:  authService,
		UsersHandler: usersHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
