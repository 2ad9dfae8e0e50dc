// Package userinfo обрабатывает чтение счёта и журнала транзакций.
package userinfo

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/floodsense/backend/internal/http/middlewarectx"
	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/services/payment"
)

// UserInfoResponse — ответ со счётом и журналом транзакций.
type UserInfoResponse struct {
	response.Response
	*payment.AccountInfo
}

// Service определяет интерфейс платёжного сервиса.
type Service interface {
	UserInfo(ctx context.Context, userUID string) (*payment.AccountInfo, error)
}

// Handler обрабатывает запросы счёта пользователя.
type Handler struct {
	log            *slog.Logger
	paymentService Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, paymentService Service) *Handler {
	return &Handler{
		log:            log,
		paymentService: paymentService,
	}
}

// ServeHTTP godoc
// @Summary Счёт пользователя
// @Description Возвращает профиль с балансом и журнал транзакций
// @Tags Payments
// @Produce  json
// @Success 200 {object} UserInfoResponse "Счёт и транзакции"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payment/user-info [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.userinfo"
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

	info, err := h.paymentService.UserInfo(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get user info", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, UserInfoResponse{
		Response:    response.OK("user info"),
		AccountInfo: info,
	})
}
