package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-auth-api/internal/config"
	"clinic-auth-api/internal/database"
	"clinic-auth-api/internal/handler"
	"clinic-auth-api/internal/middleware"
	"clinic-auth-api/internal/repository"
	"clinic-auth-api/internal/router"
	"clinic-auth-api/internal/service"
)

type App struct {
	server *http.Server
	db     *database.DB
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.Connect(context.Background(), cfg.DatabaseURL, database.PoolSettings{
		MaxConns:     cfg.DBMaxConns,
		MinConns:     cfg.DBMinConns,
		ConnLifetime: cfg.DBConnLifetime,
		ConnIdleTime: cfg.DBConnIdleTime,
		PingInterval: cfg.DBPingInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	slog.Info("database ready")

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	tokenService := service.NewTokenService(tokenRepo, userRepo)
	authService := service.NewAuthService(userRepo, profileRepo, hasher, tokenService)

	authMiddleware := middleware.NewAuthMiddleware(tokenService)
	authHandler := handler.NewAuthHandler(authService)

	appRouter := router.New(cfg, authMiddleware, authHandler, db.Health)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{server: server, db: db}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.db.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.db.Close()
	slog.Info("server stopped")
	return nil
}
