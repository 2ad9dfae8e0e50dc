// Package status обрабатывает чтение состояния запроса на доступ.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/floodsense/backend/internal/http/middlewarectx"
	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/services/upgrade"
)

// StatusResponse — ответ с состоянием доступа.
type StatusResponse struct {
	response.Response
	Status *upgrade.Status `json:"status"`
}

// Service определяет интерфейс сервиса запросов на доступ.
type Service interface {
	GetStatus(ctx context.Context, userUID string) (*upgrade.Status, error)
}

// Handler обрабатывает чтение состояния.
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
// @Summary Состояние доступа
// @Description Возвращает статус запроса и сроки действия доступа к карте
// @Tags Upgrade
// @Produce  json
// @Success 200 {object} StatusResponse "Состояние доступа"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /upgrade/status [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.upgrade.status"
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

	status, err := h.upgradeService.GetStatus(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get upgrade status", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, StatusResponse{
		Response: response.OK("status"),
		Status:   status,
	})
}
