// Package userupdate обрабатывает изменение пользователя администратором.
package userupdate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/models"
	"github.com/floodsense/backend/internal/services/admin"
	"github.com/floodsense/backend/internal/storage/repository"
)

// UpdateUserRequest представляет запрос на изменение пользователя.
// Nil-поле не изменяется.
type UpdateUserRequest struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Role         *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
	HasMapAccess *bool   `json:"hasMapAccess,omitempty"`
}

// UserResponse — ответ с обновлённым пользователем.
type UserResponse struct {
	response.Response
	User models.UserInfo `json:"user"`
}

// Service определяет интерфейс административного сервиса.
type Service interface {
	UpdateUser(ctx context.Context, userUID string, p admin.UpdateParams) (*models.User, error)
}

// Handler обрабатывает запросы изменения пользователя.
type Handler struct {
	log          *slog.Logger
	adminService Service
	validate     *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, adminService Service) *Handler {
	return &Handler{
		log:          log,
		adminService: adminService,
		validate:     validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить пользователя
// @Description Изменяет имя, почту, роль или доступ к карте
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path string true "Идентификатор пользователя"
// @Param request body UpdateUserRequest true "Изменяемые поля"
// @Success 200 {object} UserResponse "Обновлённый пользователь"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/{id} [put]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userupdate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	uid := chi.URLParam(r, "id")
	user, err := h.adminService.UpdateUser(r.Context(), uid, admin.UpdateParams{
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		HasMapAccess: req.HasMapAccess,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to update user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("user updated by admin", slog.String("email", user.Email))
	render.JSON(w, r, UserResponse{
		Response: response.OK("user updated"),
		User:     user.Info(),
	})
}
