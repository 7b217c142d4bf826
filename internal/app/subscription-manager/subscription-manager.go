// Package subscriptionmanager собирает основное приложение: хранилище,
// миграции, кэш, сервисы и HTTP-сервер с корректным завершением.
package subscriptionmanager

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/subscription-manager/internal/cache"
	"github.com/magabrotheeeer/subscription-manager/internal/config"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-manager/internal/migrations"
	authservice "github.com/magabrotheeeer/subscription-manager/internal/services/auth"
	planservice "github.com/magabrotheeeer/subscription-manager/internal/services/plan"
	subservice "github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-manager/internal/storage/repository"
)

// App хранит зависимости запущенного приложения.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New инициализирует все зависимости приложения и возвращает готовый App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker)
	planService := planservice.NewPlanService(db, cacheRedis, logger)
	subscriptionService := subservice.NewSubscriptionService(db, planService, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, authService, planService, subscriptionService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.db.DB.Close()
		return err
	}
}
