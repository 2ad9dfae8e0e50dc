// Package health отвечает на проверки живости сервиса.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/floodsense/backend/internal/cache"
	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/storage/repository"
)

// Handler обрабатывает запросы проверки состояния.
type Handler struct {
	log     *slog.Logger
	storage *repository.Storage
	cache   *cache.Cache
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, storage *repository.Storage, cache *cache.Cache) *Handler {
	return &Handler{
		log:     log,
		storage: storage,
		cache:   cache,
	}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Description Проверяет доступность базы данных
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response "Сервис работает"
// @Failure 503 {object} response.ErrorResponse "База данных недоступна"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	if err := repository.CheckDatabaseReady(h.storage); err != nil {
		h.log.Error("database is not ready",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err))
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database unavailable"))
		return
	}
	render.JSON(w, r, response.OK("ok"))
}
