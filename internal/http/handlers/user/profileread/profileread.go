// Package profileread обрабатывает чтение профиля пользователя.
package profileread

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/floodsense/backend/internal/http/middlewarectx"
	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/models"
)

// ProfileResponse — ответ с профилем пользователя.
type ProfileResponse struct {
	response.Response
	User models.UserInfo `json:"user"`
}

// Service определяет интерфейс сервиса профиля.
type Service interface {
	GetProfile(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает чтение профиля.
type Handler struct {
	log         *slog.Logger
	userService Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, userService Service) *Handler {
	return &Handler{
		log:         log,
		userService: userService,
	}
}

// ServeHTTP godoc
// @Summary Профиль
// @Description Возвращает профиль текущего пользователя
// @Tags User
// @Produce  json
// @Success 200 {object} ProfileResponse "Профиль"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /user/profile [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.profileread"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := middlewarectx.UserUIDFromContext(r.Context())
	if !ok {
		log.Error("user UID not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	user, err := h.userService.GetProfile(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get profile", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, ProfileResponse{
		Response: response.OK("profile"),
		User:     user.Info(),
	})
}
