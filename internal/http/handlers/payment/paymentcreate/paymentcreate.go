// Package paymentcreate обрабатывает создание платёжной ссылки.
package paymentcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/floodsense/backend/internal/http/middlewarectx"
	"github.com/floodsense/backend/internal/http/response"
	"github.com/floodsense/backend/internal/lib/sl"
	"github.com/floodsense/backend/internal/paymentprovider"
)

// CreatePaymentLinkRequest представляет запрос на создание платёжной ссылки.
type CreatePaymentLinkRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description,omitempty"`
}

// CreatePaymentLinkResponse — ответ с данными платёжной ссылки.
type CreatePaymentLinkResponse struct {
	response.Response
	Data *paymentprovider.PaymentLinkData `json:"data"`
}

// Service определяет интерфейс платёжного сервиса.
type Service interface {
	CreateLink(ctx context.Context, userUID string, amount int64, description string) (*paymentprovider.PaymentLinkData, error)
}

// Handler обрабатывает запросы на создание платёжной ссылки.
type Handler struct {
	log            *slog.Logger
	paymentService Service
	validate       *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, paymentService Service) *Handler {
	return &Handler{
		log:            log,
		paymentService: paymentService,
		validate:       validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать платёжную ссылку
// @Description Создает платёжную ссылку PayOS для пополнения счёта
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body CreatePaymentLinkRequest true "Сумма и описание платежа"
// @Success 200 {object} CreatePaymentLinkResponse "Платёжная ссылка"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка платёжного провайдера"
// @Router /payment/create-payment-link [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paymentcreate"
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

	var req CreatePaymentLinkRequest
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

	link, err := h.paymentService.CreateLink(r.Context(), userUID, req.Amount, req.Description)
	if err != nil {
		log.Error("failed to create payment link", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("payment provider error"))
		return
	}

	render.JSON(w, r, CreatePaymentLinkResponse{
		Response: response.OK("payment link created"),
		Data:     link,
	})
}
