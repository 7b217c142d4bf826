// Package subscriptionmanager предоставляет маршруты для основного приложения.
package subscriptionmanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/health"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/plan/plancreate"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/plan/planlist"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/plan/planread"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/plan/planremove"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/plan/planupdate"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/subcancel"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/subcreate"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/subexpire"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/sublist"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/subread"
	"github.com/magabrotheeeer/subscription-manager/internal/http/handlers/subscription/subupdate"
	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	authservice "github.com/magabrotheeeer/subscription-manager/internal/services/auth"
	planservice "github.com/magabrotheeeer/subscription-manager/internal/services/plan"
	subservice "github.com/magabrotheeeer/subscription-manager/internal/services/subscription"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker,
	authService *authservice.AuthService,
	planService *planservice.PlanService,
	subscriptionService *subservice.SubscriptionService,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)

		// Каталог планов доступен без токена, но токен учитывается:
		// администратор видит и отключенные планы
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.MaybeJWTMiddleware(jwtMaker))
			r.Get("/plans", planlist.New(logger, planService).ServeHTTP)
			r.Get("/plans/{id}", planread.New(logger, planService).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Post("/subscriptions", subcreate.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{user_id}", subread.New(logger, subscriptionService).ServeHTTP)
			r.Put("/subscriptions/{user_id}", subupdate.New(logger, subscriptionService).ServeHTTP)
			r.Delete("/subscriptions/{user_id}", subcancel.New(logger, subscriptionService).ServeHTTP)

			// Только для администратора
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))
				r.Post("/plans", plancreate.New(logger, planService).ServeHTTP)
				r.Put("/plans/{id}", planupdate.New(logger, planService).ServeHTTP)
				r.Delete("/plans/{id}", planremove.New(logger, planService).ServeHTTP)
				r.Get("/subscriptions", sublist.New(logger, subscriptionService).ServeHTTP)
				r.Post("/subscriptions/expire", subexpire.New(logger, subscriptionService).ServeHTTP)
			})
		})
	})

	r.Get("/", health.New(logger).ServeHTTP)
	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
