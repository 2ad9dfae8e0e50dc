package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/models"
)

// UserProvider описывает чтение пользователя для проверки роли.
type UserProvider interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// AdminMiddleware пропускает дальше только администраторов.
// Роль перечитывается из хранилища, а не берётся из токена:
// разжалованный администратор теряет доступ сразу, не дожидаясь
// истечения выданного токена.
func AdminMiddleware(users UserProvider, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			uid, ok := UserUIDFromContext(r.Context())
			if !ok {
				log.Error("user UID not found in context")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			user, err := users.GetUser(r.Context(), uid)
			if err != nil {
				log.Error("failed to read user", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}
			if user.Role != models.RoleAdmin {
				log.Warn("admin access denied", slog.String("email", user.Email))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin access required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
