// Package paymentwebhook обрабатывает уведомления платёжного провайдера.
package paymentwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/paymentprovider"
	"github.com/floodsense/backend/internal/services/payment"
)

// Service определяет интерфейс платёжного сервиса.
type Service interface {
	ProcessWebhook(ctx context.Context, payload *paymentprovider.WebhookPayload) error
}

// Handler обрабатывает уведомления провайдера.
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
// @Summary Уведомление о платеже
// @Description Принимает подписанное уведомление PayOS и применяет платёж к счёту.
// @Description Ответ 200 подтверждает доставку; провайдер повторяет доставку при 5xx.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body paymentprovider.WebhookPayload true "Уведомление провайдера"
// @Success 200 {object} response.Response "Уведомление принято"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверная контрольная подпись"
// @Failure 500 {object} response.ErrorResponse "Ошибка применения платежа"
// @Router /payment/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentwebhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var payload paymentprovider.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Error("failed to decode webhook payload", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.paymentService.ProcessWebhook(r.Context(), &payload); err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			log.Warn("webhook with invalid signature rejected")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid signature"))
			return
		}
		log.Error("failed to process webhook", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OK("webhook processed"))
}
