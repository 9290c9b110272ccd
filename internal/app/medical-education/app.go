package medicaleducation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/medical-education/internal/access"
	"github.com/magabrotheeeer/medical-education/internal/cache"
	"github.com/magabrotheeeer/medical-education/internal/config"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/health"
	"github.com/magabrotheeeer/medical-education/internal/lib/jwt"
	"github.com/magabrotheeeer/medical-education/internal/lib/sl"
	"github.com/magabrotheeeer/medical-education/internal/migrations"
	"github.com/magabrotheeeer/medical-education/internal/paymentprovider"
	authservice "github.com/magabrotheeeer/medical-education/internal/services/auth"
	catalogservice "github.com/magabrotheeeer/medical-education/internal/services/catalog"
	facultyservice "github.com/magabrotheeeer/medical-education/internal/services/faculty"
	moduleservice "github.com/magabrotheeeer/medical-education/internal/services/module"
	observationservice "github.com/magabrotheeeer/medical-education/internal/services/observation"
	paymentservice "github.com/magabrotheeeer/medical-education/internal/services/payment"
	progressservice "github.com/magabrotheeeer/medical-education/internal/services/progress"
	reviewservice "github.com/magabrotheeeer/medical-education/internal/services/review"
	subservice "github.com/magabrotheeeer/medical-education/internal/services/subscription"
	"github.com/magabrotheeeer/medical-education/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App — HTTP-сервер платформы вместе с его ресурсами.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New подключает хранилище и кеш, применяет миграции и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.medicaleducation.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	progressService := progressservice.NewProgressService(db, logger)
	subscriptionService := subservice.NewSubscriptionService(db, logger)

	svc := Services{
		Auth:          authservice.NewAuthService(db, jwtMaker, logger),
		Viewer:        subscriptionService,
		Catalog:       catalogservice.NewCatalogService(db, cacheRedis, access.New(cfg.FreeTeaserCount, nil), cfg.RecentCacheTTL, logger),
		Progress:      progressService,
		Modules:       moduleservice.NewModuleService(db, nil, logger),
		Pathologies:   moduleservice.NewPathologyService(db, logger),
		Faculty:       facultyservice.NewFacultyService(db, logger),
		Reviews:       reviewservice.NewReviewService(db, logger),
		Observations:  observationservice.NewObservationService(db, progressService, logger),
		Subscriptions: subscriptionService,
		Payments:      paymentservice.New(db, paymentprovider.NewClient(cfg.Payment), logger),
		Health: map[string]health.Pinger{
			"postgres": db,
			"redis":    cacheRedis,
		},
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, svc)

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

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	if cerr := a.cache.Close(); cerr != nil {
		a.logger.Error("failed to close redis", sl.Err(cerr))
	}
	if cerr := a.db.Close(); cerr != nil {
		a.logger.Error("failed to close storage", sl.Err(cerr))
	}
	return err
}
