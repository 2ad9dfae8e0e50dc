// Package profile обрабатывает изменение профиля пользователя.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/floodsense/backend/internal/http/middlewarectx"
	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/models"
	"github.com/floodsense/backend/internal/services/user"
	"github.com/floodsense/backend/internal/storage/repository"
)

// UpdateProfileRequest представляет запрос на изменение профиля.
type UpdateProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// ProfileResponse — ответ с обновлённым профилем.
type ProfileResponse struct {
	response.Response
	User models.UserInfo `json:"user"`
}

// Service определяет интерфейс сервиса профиля.
type Service interface {
	UpdateProfile(ctx context.Context, userUID string, params user.UpdateParams) (*models.User, error)
}

// Handler обрабатывает запросы изменения профиля.
type Handler struct {
	log         *slog.Logger
	userService Service
	validate    *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, userService Service) *Handler {
	return &Handler{
		log:         log,
		userService: userService,
		validate:    validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить профиль
// @Description Изменяет имя и почту текущего пользователя
// @Tags User
// @Accept  json
// @Produce  json
// @Param request body UpdateProfileRequest true "Изменяемые поля"
// @Success 200 {object} ProfileResponse "Обновлённый профиль"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или почта занята"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /user/profile [put]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.profile"
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

	var req UpdateProfileRequest
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

	updated, err := h.userService.UpdateProfile(r.Context(), userUID, user.UpdateParams{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("email already registered"))
			return
		}
		log.Error("failed to update profile", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, ProfileResponse{
		Response: response.OK("profile updated"),
		User:     updated.Info(),
	})
}
