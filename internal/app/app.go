// Package app собирает приложение: хранилище, миграции, кеш, сервисы,
// маршрутизатор и HTTP-сервер с корректным завершением.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/floodsense/backend/internal/cache"
	"github.com/floodsense/backend/internal/config"
	"github.com/floodsense/backend/internal/googleauth"
	"github.com/floodsense/backend/internal/lib/jwt"
	"github.com/floodsense/backend/internal/migrations"
	"github.com/floodsense/backend/internal/paymentprovider"
	adminservice "github.com/floodsense/backend/internal/services/admin"
	authservice "github.com/floodsense/backend/internal/services/auth"
	paymentservice "github.com/floodsense/backend/internal/services/payment"
	upgradeservice "github.com/floodsense/backend/internal/services/upgrade"
	userservice "github.com/floodsense/backend/internal/services/user"
	"github.com/floodsense/backend/internal/storage/repository"
)

// App держит HTTP-сервер и его зависимости.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New инициализирует приложение: подключает базу, накатывает миграции,
// поднимает кеш и собирает все сервисы с маршрутами.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	googleVerifier := googleauth.New(cfg.GoogleClientID)
	providerClient := paymentprovider.NewClient(cfg.PayOS.ClientID, cfg.PayOS.APIKey, cfg.PayOS.ChecksumKey)

	authService := authservice.NewAuthService(db, jwtMaker, googleVerifier, cfg.AdminEmail, logger)
	adminService := adminservice.New(db, cacheRedis, logger)
	upgradeService := upgradeservice.New(db, cacheRedis, logger)
	userService := userservice.New(db, logger)
	paymentService := paymentservice.New(db, providerClient, cacheRedis,
		cfg.PayOS.ChecksumKey, cfg.ClientURL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:     authService,
		Admin:    adminService,
		Upgrade:  upgradeService,
		User:     userService,
		Payment:  paymentService,
		Storage:  db,
		Cache:    cacheRedis,
		JWTMaker: jwtMaker,
	}, cfg)

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
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и завершает его по отмене контекста.
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
