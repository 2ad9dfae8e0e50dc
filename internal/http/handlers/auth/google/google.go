// Package google обрабатывает вход через Google ID-токен.
package google

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/models"
)

// GoogleSignInRequest представляет запрос на вход через Google.
type GoogleSignInRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// GoogleSignInResponse — ответ с токеном и данными пользователя.
type GoogleSignInResponse struct {
	response.Response
	Token string          `json:"token"`
	User  models.UserInfo `json:"user"`
}

// Service определяет интерфейс сервиса аутентификации.
type Service interface {
	GoogleSignIn(ctx context.Context, credential string) (string, *models.User, error)
}

// Handler обрабатывает вход через Google.
type Handler struct {
	log         *slog.Logger
	authService Service
	validate    *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authService Service) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
		validate:    validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход через Google
// @Description Проверяет Google ID-токен, создает учётную запись при первом входе
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body GoogleSignInRequest true "ID-токен Google"
// @Success 200 {object} GoogleSignInResponse "Успешный вход"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверный ID-токен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/google [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.google"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req GoogleSignInRequest
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

	token, user, err := h.authService.GoogleSignIn(r.Context(), req.Credential)
	if err != nil {
		log.Error("google sign in failed", sl.Err(err))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid google credential"))
		return
	}

	log.Info("user signed in via google", slog.String("email", user.Email))
	render.JSON(w, r, GoogleSignInResponse{
		Response: response.OK("signed in"),
		Token:    token,
		User:     user.Info(),
	})
}
