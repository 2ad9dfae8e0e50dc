// Package upgraderequests обрабатывает чтение ожидающих запросов на доступ.
package upgraderequests

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

// ListResponse — ответ со списком ожидающих запросов.
type ListResponse struct {
	response.Response
	Users []models.UserInfo `json:"users"`
}

// Service определяет интерфейс административного сервиса.
type Service interface {
	ListUpgradeRequests(ctx context.Context) ([]*models.User, error)
}

// Handler обрабатывает запросы списка ожидающих.
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
// @Summary Запросы на доступ
// @Description Возвращает пользователей, ожидающих одобрения доступа к карте
// @Tags Admin
// @Produce  json
// @Success 200 {object} ListResponse "Список ожидающих"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Требуются права администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/upgrade-requests [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.upgraderequests"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	users, err := h.adminService.ListUpgradeRequests(r.Context())
	if err != nil {
		log.Error("failed to list upgrade requests", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	infos := make([]models.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, u.Info())
	}
	render.JSON(w, r, ListResponse{
		Response: response.OK("upgrade requests listed"),
		Users:    infos,
	})
}
