// Package grantaccess обрабатывает выдачу доступа к карте администратором.
package grantaccess

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/models"
	"github.com/floodsense/backend/internal/storage/repository"
)

// UserResponse — ответ с обновлённым пользователем.
type UserResponse struct {
	response.Response
	User models.UserInfo `json:"user"`
}

// Service определяет интерфейс административного сервиса.
type Service interface {
	GrantMapAccess(ctx context.Context, userUID string) (*models.User, error)
}

// Handler обрабатывает запросы на выдачу доступа.
type Handler struct {
	log          *slog.Logger
	adminService Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, adminService Service) *Handler {
	return &Handler{
		log:          log,
		adminService: adminService,
	}
}

// ServeHTTP godoc
// @Summary Выдать доступ к карте
// @Description Выдаёт пользователю доступ к карте на 30 дней
// @Tags Admin
// @Produce  json
// @Param id path string true "Идентификатор пользователя"
// @Success 200 {object} UserResponse "Доступ выдан"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{id}/grant-map-access [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.grantaccess"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid := chi.URLParam(r, "id")
	user, err := h.adminService.GrantMapAccess(r.Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to grant map access", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("map access granted", slog.String("email", user.Email))
	render.JSON(w, r, UserResponse{
		Response: response.OK("map access granted"),
		User:     user.Info(),
	})
}
