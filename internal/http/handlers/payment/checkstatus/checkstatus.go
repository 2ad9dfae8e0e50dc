// Package checkstatus обрабатывает опрос статуса платежа.
package checkstatus

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/paymentprovider"
)

// CheckStatusResponse — ответ с состоянием платежа.
type CheckStatusResponse struct {
	response.Response
	Data *paymentprovider.PaymentLinkData `json:"data"`
}

// Service определяет интерфейс платёжного сервиса.
type Service interface {
	CheckStatus(ctx context.Context, orderCode int64) (*paymentprovider.PaymentLinkData, error)
}

// Handler обрабатывает запросы статуса платежа.
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
// @Summary Статус платежа
// @Description Запрашивает у PayOS состояние платежа по коду заказа
// @Tags Payments
// @Produce  json
// @Param orderCode path int true "Код заказа"
// @Success 200 {object} CheckStatusResponse "Состояние платежа"
// @Failure 400 {object} response.ErrorResponse "Некорректный код заказа"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка платёжного провайдера"
// @Router /payment/check-status/{orderCode} [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.checkstatus"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	orderCode, err := strconv.ParseInt(chi.URLParam(r, "orderCode"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid order code"))
		return
	}

	link, err := h.paymentService.CheckStatus(r.Context(), orderCode)
	if err != nil {
		log.Error("failed to check payment status", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("payment provider error"))
		return
	}

	render.JSON(w, r, CheckStatusResponse{
		Response: response.OK("payment status"),
		Data:     link,
	})
}
