// Package medicaleducation собирает HTTP API платформы.
package medicaleducation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/medical-education/internal/config"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/faculty"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/health"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/modules"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/observations"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/payments"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/progress"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/reviews"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/sessions"
	"github.com/magabrotheeeer/medical-education/internal/http/handlers/subscriptions"
	"github.com/magabrotheeeer/medical-education/internal/http/middlewarectx"
)

// AuthService — аутентификация для middleware и обработчиков /auth.
type AuthService interface {
	middlewarectx.Service
	login.Service
	register.Service
	me.Service
}

// CatalogService — публичные витрины и администрирование сессий.
type CatalogService interface {
	sessions.Service
	sessions.AdminService
}

// Services — зависимости обработчиков HTTP API.
type Services struct {
	Auth          AuthService
	Viewer        middlewarectx.ViewerResolver
	Catalog       CatalogService
	Progress      progress.Service
	Modules       modules.ModuleService
	Pathologies   modules.PathologyService
	Faculty       faculty.Service
	Reviews       reviews.Service
	Observations  observations.Service
	Subscriptions subscriptions.Service
	Payments      payments.Service
	Health        map[string]health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, log *slog.Logger, cfg *config.Config, svc Services) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", payments.SignatureHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
	r.Method(http.MethodGet, "/health", health.New(log, svc.Health))

	cookie := login.Cookie{TTL: cfg.TokenTTL, Secure: cfg.CookieSecure}
	sessionsHandler := sessions.New(log, svc.Catalog)
	sessionsAdmin := sessions.NewAdmin(log, svc.Catalog)
	progressHandler := progress.New(log, svc.Progress)
	modulesHandler := modules.New(log, svc.Modules, svc.Pathologies)
	facultyHandler := faculty.New(log, svc.Faculty)
	reviewsHandler := reviews.New(log, svc.Reviews)
	observationsHandler := observations.New(log, svc.Observations)
	subscriptionsHandler := subscriptions.New(log, svc.Subscriptions)
	paymentsHandler := payments.New(log, svc.Payments, cfg.Payment.KeyID)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(middlewarectx.NewLimiter(cfg.RateLimit, cfg.RateBurst), log))
		r.Use(middlewarectx.OptionalAuth(svc.Auth, log))
		r.Use(middlewarectx.ViewerAccess(svc.Viewer, log))

		// Открытые конечные точки
		r.Post("/auth/register", register.New(log, svc.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(log, svc.Auth, cookie).ServeHTTP)
		r.Post("/auth/logout", logout.New(cfg.CookieSecure).ServeHTTP)

		r.Get("/sessions/recent", sessionsHandler.Recent)
		r.Get("/sessions/top-rated/lectures", sessionsHandler.TopRatedLectures)
		r.Get("/sessions/top-rated/cases", sessionsHandler.TopRatedCases)
		r.Get("/sessions/top-watched", sessionsHandler.TopWatched)
		r.Get("/sessions/upcoming-live", sessionsHandler.UpcomingLive)
		r.Get("/sessions/recommended", sessionsHandler.Recommended)
		r.Get("/sessions/{id}", sessionsHandler.Get)

		r.Get("/modules", modulesHandler.List)
		r.Get("/modules/summary", modulesHandler.Summaries)
		r.Get("/modules/{id}", modulesHandler.Get)
		r.Get("/modules/{id}/pathologies", modulesHandler.Pathologies)
		r.Get("/pathologies", modulesHandler.ListPathologies)
		r.Get("/pathologies/{id}", modulesHandler.GetPathology)
		r.Get("/pathologies/{id}/sessions", sessionsHandler.ByPathology)

		r.Get("/faculty", facultyHandler.List)
		r.Get("/faculty/{id}", facultyHandler.Get)

		r.Get("/reviews/item/{itemID}", reviewsHandler.Latest)

		r.Get("/packages", paymentsHandler.Packages)
		r.Get("/packages/{id}", paymentsHandler.Package)
		r.Post("/payments/webhook", paymentsHandler.Webhook)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, log))

			r.Get("/auth/me", me.New(log, svc.Auth).ServeHTTP)
			r.Get("/sessions/watched", sessionsHandler.Watched)

			r.Route("/progress", func(r chi.Router) {
				r.Post("/lectures/{id}", progressHandler.UpdateLecture)
				r.Post("/lectures/{id}/start", progressHandler.StartLecture)
				r.Post("/sessions/{id}/view", progressHandler.TrackView)
				r.Get("/sessions/{id}", progressHandler.Get)
				r.Post("/cases/{id}/start", progressHandler.StartCase)
				r.Post("/cases/{id}/complete", progressHandler.CompleteCase)
				r.Get("/in-progress", progressHandler.InProgress)
				r.Get("/completed", progressHandler.Completed)
				r.Get("/stats", progressHandler.Stats)
			})

			r.Get("/reviews/item/{itemID}/mine", reviewsHandler.Mine)
			r.Post("/reviews", reviewsHandler.Create)
			r.Patch("/reviews/{id}", reviewsHandler.Update)
			r.Delete("/reviews/{id}", reviewsHandler.Delete)

			r.Get("/observations/mine", observationsHandler.Mine)
			r.Post("/observations/submit", observationsHandler.Submit)
			r.Post("/observations/{id}/responses", observationsHandler.Respond)
			r.Get("/observations/session/{sessionID}", observationsHandler.BySession)
			r.Get("/observations/session/{sessionID}/compare", observationsHandler.Compare)

			r.Get("/subscriptions/active", subscriptionsHandler.Active)
			r.Get("/subscriptions/history", subscriptionsHandler.History)
			r.Post("/subscriptions/{id}/cancel", subscriptionsHandler.Cancel)
			r.Put("/subscriptions/{id}/auto-renew", subscriptionsHandler.AutoRenew)

			r.Post("/payments/orders", paymentsHandler.CreateOrder)
			r.Post("/payments/verify", paymentsHandler.Verify)
		})

		// Администрирование
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, log))
			r.Use(middlewarectx.AdminOnly(log))

			r.Get("/sessions", sessionsAdmin.List)
			r.Post("/sessions", sessionsAdmin.Create)
			r.Put("/sessions/{type}/{id}", sessionsAdmin.Update)
			r.Put("/sessions/{type}/{id}/faculty", sessionsAdmin.UpdateFaculty)
			r.Delete("/sessions/{type}/{id}", sessionsAdmin.Delete)

			r.Post("/modules", modulesHandler.Create)
			r.Put("/modules/{id}", modulesHandler.Update)
			r.Post("/modules/{id}/pathologies", modulesHandler.CreatePathology)
			r.Put("/pathologies/{id}", modulesHandler.UpdatePathology)

			r.Post("/faculty", facultyHandler.Create)
			r.Put("/faculty/{id}", facultyHandler.Update)
			r.Delete("/faculty/{id}", facultyHandler.Delete)

			r.Post("/observations", observationsHandler.Create)
			r.Get("/observations/{id}", observationsHandler.WithResponses)
			r.Put("/observations/{id}/faculty", observationsHandler.SetFaculty)

			r.Get("/packages", paymentsHandler.AllPackages)
			r.Post("/packages", paymentsHandler.CreatePackage)
			r.Put("/packages/{id}", paymentsHandler.UpdatePackage)

			r.Get("/subscriptions/stats", subscriptionsHandler.Stats)
		})
	})
}
