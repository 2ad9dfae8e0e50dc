// Package request обрабатывает подачу запроса на доступ к карте.
package request

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/floodsense/backend/internal/http/middlewarectx"
	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/services/upgrade"
)

// StatusResponse — ответ с состоянием запроса на доступ.
type StatusResponse struct {
	response.Response
	Status *upgrade.Status `json:"status"`
}

// Service определяет интерфейс сервиса запросов на доступ.
type Service interface {
	Request(ctx context.Context, userUID string) (*upgrade.Status, error)
}

// Handler обрабатывает подачу запроса.
type Handler struct {
	log            *slog.Logger
	upgradeService Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, upgradeService Service) *Handler {
	return &Handler{
		log:            log,
		upgradeService: upgradeService,
	}
}

// ServeHTTP godoc
// @Summary Запросить доступ к карте
// @Description Помечает пользователя ожидающим одобрения администратора
// @Tags Upgrade
// @Produce  json
// @Success 200 {object} StatusResponse "Запрос принят"
// @Failure 400 {object} response.ErrorResponse "Доступ уже есть"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /upgrade/request [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.upgrade.request"
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

	status, err := h.upgradeService.Request(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, upgrade.ErrAlreadyHasAccess) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("map access already granted"))
			return
		}
		log.Error("failed to request upgrade", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, StatusResponse{
		Response: response.OK("upgrade requested"),
		Status:   status,
	})
}
