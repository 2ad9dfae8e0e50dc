package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/floodsense/backend/internal/cache"
	"github.com/floodsense/backend/internal/lib/entitlement"
	"github.com/floodsense/backend/internal/models"
	"github.com/floodsense/backend/internal/paymentprovider"
	"github.com/floodsense/backend/internal/storage/repository"
)

// ErrBadSignature возвращается при неверной контрольной подписи уведомления.
var ErrBadSignature = errors.New("invalid webhook signature")

// userMarker — префикс маркера учётной записи в описании платежа.
const userMarker = "USER_"

// ProcessWebhook применяет уведомление провайдера к учётной записи.
// Уведомление с неверной подписью отвергается до любых изменений.
// Неуспешные платежи, неопознанные плательщики и повторные доставки
// подтверждаются без изменения состояния: провайдер перестаёт
// ретраить только после ответа 200.
func (s *PaymentService) ProcessWebhook(ctx context.Context, payload *paymentprovider.WebhookPayload) error {
	const op = "services.payment.ProcessWebhook"

	if !paymentprovider.VerifyWebhook(s.checksumKey, payload) {
		return fmt.Errorf("%s: %w", op, ErrBadSignature)
	}

	data, err := payload.ParseData()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !payload.Success || data.Code != paymentprovider.SuccessCode {
		s.log.Info("ignoring unsuccessful payment notification",
			slog.Int64("orderCode", data.OrderCode),
			slog.String("code", data.Code))
		return nil
	}

	user, err := s.resolvePayer(ctx, data)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.log.Warn("payment from unknown payer, manual reconciliation needed",
				slog.Int64("orderCode", data.OrderCode),
				slog.String("buyerEmail", data.BuyerEmail),
				slog.String("description", data.Description))
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	// Дату истечения не вычисляем здесь: прочитанный выше срок мог
	// устареть к моменту записи. Хранилище продлевает доступ от срока,
	// прочитанного под блокировкой строки.
	tier := entitlement.ExtensionFor(data.Amount)

	params := repository.ApplyPaymentParams{
		UserUID:     user.UID,
		Amount:      data.Amount,
		OrderCode:   strconv.FormatInt(data.OrderCode, 10),
		Kind:        models.TransactionDeposit,
		Description: data.Description,
		Tier:        tier,
		Now:         time.Now().UTC(),
	}
	if tier.Days > 0 {
		params.Kind = models.TransactionPurchase
	}

	if err := s.repo.ApplyPayment(ctx, params); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			s.log.Info("duplicate payment notification ignored",
				slog.Int64("orderCode", data.OrderCode))
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(cache.StatusKey(user.UID)); err != nil {
		s.log.Warn("failed to invalidate status cache", slog.Any("err", err))
	}

	s.log.Info("payment applied",
		slog.String("email", user.Email),
		slog.Int64("orderCode", data.OrderCode),
		slog.Int64("amount", data.Amount),
		slog.Int("days", tier.Days))
	return nil
}

// resolvePayer сопоставляет уведомление с учётной записью: сначала по
// маркеру USER_<uid> в описании, затем по почте плательщика.
func (s *PaymentService) resolvePayer(ctx context.Context, data *paymentprovider.WebhookData) (*models.User, error) {
	if rest, ok := strings.CutPrefix(data.Description, userMarker); ok {
		if len(rest) >= 36 {
			if uid, err := uuid.Parse(rest[:36]); err == nil {
				if user, err := s.repo.GetUser(ctx, uid.String()); err == nil {
					return user, nil
				} else if !errors.Is(err, repository.ErrUserNotFound) {
					return nil, err
				}
			}
		}
	}
	if data.BuyerEmail != "" {
		return s.repo.GetUserByEmail(ctx, strings.ToLower(data.BuyerEmail))
	}
	return nil, repository.ErrUserNotFound
}
