// Package app предоставляет маршруты приложения.
package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/floodsense/backend/internal/cache"
	"github.com/floodsense/backend/internal/config"
	"github.com/floodsense/backend/internal/http/handlers/admin/grantaccess"
	"github.com/floodsense/backend/internal/http/handlers/admin/revokeaccess"
	"github.com/floodsense/backend/internal/http/handlers/admin/upgraderequests"
	"github.com/floodsense/backend/internal/http/handlers/admin/userlist"
	"github.com/floodsense/backend/internal/http/handlers/admin/userread"
	"github.com/floodsense/backend/internal/http/handlers/admin/userremove"
	"github.com/floodsense/backend/internal/http/handlers/admin/userupdate"
	"github.com/floodsense/backend/internal/http/handlers/auth/google"
	"github.com/floodsense/backend/internal/http/handlers/auth/signin"
	"github.com/floodsense/backend/internal/http/handlers/auth/signup"
	"github.com/floodsense/backend/internal/http/handlers/health"
	"github.com/floodsense/backend/internal/http/handlers/payment/checkstatus"
	"github.com/floodsense/backend/internal/http/handlers/payment/paymentcreate"
	"github.com/floodsense/backend/internal/http/handlers/payment/paymentwebhook"
	"github.com/floodsense/backend/internal/http/handlers/payment/userinfo"
	"github.com/floodsense/backend/internal/http/handlers/upgrade/request"
	"github.com/floodsense/backend/internal/http/handlers/upgrade/status"
	"github.com/floodsense/backend/internal/http/handlers/user/avatar"
	"github.com/floodsense/backend/internal/http/handlers/user/profile"
	"github.com/floodsense/backend/internal/http/handlers/user/profileread"
	"github.com/floodsense/backend/internal/http/middlewarectx"
	"github.com/floodsense/backend/internal/lib/jwt"
	adminservice "github.com/floodsense/backend/internal/services/admin"
	authservice "github.com/floodsense/backend/internal/services/auth"
	paymentservice "github.com/floodsense/backend/internal/services/payment"
	upgradeservice "github.com/floodsense/backend/internal/services/upgrade"
	userservice "github.com/floodsense/backend/internal/services/user"
	"github.com/floodsense/backend/internal/storage/repository"
)

// Services собирает зависимости маршрутов.
type Services struct {
	Auth     *authservice.AuthService
	Admin    *adminservice.AdminService
	Upgrade  *upgradeservice.UpgradeService
	User     *userservice.UserService
	Payment  *paymentservice.PaymentService
	Storage  *repository.Storage
	Cache    *cache.Cache
	JWTMaker jwt.Maker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services, cfg *config.Config) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		corsMiddleware(cfg.AllowedOrigins),
	)

	limiter := rate.NewLimiter(rate.Limit(20), 40)

	r.Route("/api", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger, s.Storage, s.Cache).ServeHTTP)
		r.Post("/auth/signup", signup.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/signin", signin.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/google", google.New(logger, s.Auth).ServeHTTP)

		// Webhook провайдера: без JWT, защищён контрольной подписью
		r.Post("/payment/webhook", paymentwebhook.New(logger, s.Payment).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.JWTMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))

			r.Post("/upgrade/request", request.New(logger, s.Upgrade).ServeHTTP)
			r.Get("/upgrade/status", status.New(logger, s.Upgrade).ServeHTTP)

			r.Get("/user/profile", profileread.New(logger, s.User).ServeHTTP)
			r.Put("/user/profile", profile.New(logger, s.User).ServeHTTP)
			r.Post("/user/avatar", avatar.New(logger, s.User, cfg.UploadDir).ServeHTTP)

			r.Post("/payment/create-payment-link", paymentcreate.New(logger, s.Payment).ServeHTTP)
			r.Get("/payment/check-status/{orderCode}", checkstatus.New(logger, s.Payment).ServeHTTP)
			r.Get("/payment/user-info", userinfo.New(logger, s.Payment).ServeHTTP)

			// Административная группа
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminMiddleware(s.Storage, logger))
				r.Get("/admin/users", userlist.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/users/{id}", userread.New(logger, s.Admin).ServeHTTP)
				r.Put("/admin/users/{id}", userupdate.New(logger, s.Admin).ServeHTTP)
				r.Delete("/admin/users/{id}", userremove.New(logger, s.Admin).ServeHTTP)
				r.Post("/admin/users/{id}/grant-map-access", grantaccess.New(logger, s.Admin).ServeHTTP)
				r.Post("/admin/users/{id}/revoke-map-access", revokeaccess.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/upgrade-requests", upgraderequests.New(logger, s.Admin).ServeHTTP)
			})
		})
	})

	// Статика загруженных файлов
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

// corsMiddleware разрешает кросс-доменные запросы клиентского приложения:
// куки и заголовок Authorization проходят только с перечисленных origin.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
