// Package payment содержит платёжную логику: создание платёжных ссылок,
// опрос статуса платежа и применение уведомлений провайдера к счёту.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/floodsense/backend/internal/lib/entitlement"
	"github.com/floodsense/backend/internal/models"
	"github.com/floodsense/backend/internal/paymentprovider"
	"github.com/floodsense/backend/internal/storage/repository"
)

// defaultDescription подставляется, когда клиент не передал описание платежа.
const defaultDescription = "Nap tien"

// UserRepository описывает методы хранилища для платёжных операций.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ApplyPayment(ctx context.Context, p repository.ApplyPaymentParams) error
	ListTransactions(ctx context.Context, userUID string) ([]models.Transaction, error)
}

// Provider описывает методы клиента платёжного провайдера.
type Provider interface {
	CreatePaymentLink(ctx context.Context, req paymentprovider.CreatePaymentLinkRequest) (*paymentprovider.PaymentLinkData, error)
	GetPaymentLinkInformation(ctx context.Context, orderCode string) (*paymentprovider.PaymentLinkData, error)
}

// Cache описывает методы для сброса кешированного статуса.
type Cache interface {
	Invalidate(key string) error
}

// PaymentService реализует платёжные операции.
type PaymentService struct {
	repo        UserRepository
	provider    Provider
	cache       Cache
	checksumKey string
	clientURL   string
	log         *slog.Logger
}

// New создает новый экземпляр PaymentService.
func New(repo UserRepository, provider Provider, cache Cache,
	checksumKey, clientURL string, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:        repo,
		provider:    provider,
		cache:       cache,
		checksumKey: checksumKey,
		clientURL:   clientURL,
		log:         log,
	}
}

// CreateLink создает платёжную ссылку у провайдера. Код заказа — текущее
// время в миллисекундах, описание несёт маркер USER_<uid> для обратного
// сопоставления платежа с учётной записью при доставке уведомления.
func (s *PaymentService) CreateLink(ctx context.Context, userUID string, amount int64, description string) (*paymentprovider.PaymentLinkData, error) {
	const op = "services.payment.CreateLink"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if description == "" {
		description = defaultDescription
	}
	// Обрезаем по рунам: байтовый срез мог бы разрезать многобайтовый символ.
	if runes := []rune(description); len(runes) > 15 {
		description = string(runes[:15])
	}

	req := paymentprovider.CreatePaymentLinkRequest{
		OrderCode:   time.Now().UnixMilli(),
		Amount:      amount,
		Description: fmt.Sprintf("USER_%s_%s", user.UID, description),
		CancelURL:   s.clientURL + "/payment/cancel",
		ReturnURL:   s.clientURL + "/payment/success",
		BuyerEmail:  user.Email,
		BuyerName:   user.Name,
	}

	link, err := s.provider.CreatePaymentLink(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment link created",
		slog.String("email", user.Email),
		slog.Int64("orderCode", link.OrderCode),
		slog.Int64("amount", amount))
	return link, nil
}

// CheckStatus запрашивает у провайдера состояние платежа по коду заказа.
func (s *PaymentService) CheckStatus(ctx context.Context, orderCode int64) (*paymentprovider.PaymentLinkData, error) {
	const op = "services.payment.CheckStatus"

	link, err := s.provider.GetPaymentLinkInformation(ctx, strconv.FormatInt(orderCode, 10))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return link, nil
}

// AccountInfo — нормализованная учётная запись с журналом транзакций.
type AccountInfo struct {
	User         models.UserInfo      `json:"user"`
	Transactions []models.Transaction `json:"transactions"`
}

// UserInfo возвращает учётную запись вызывающего с балансом и журналом
// транзакций, проведя её через нормализацию инвариантов.
func (s *PaymentService) UserInfo(ctx context.Context, userUID string) (*AccountInfo, error) {
	const op = "services.payment.UserInfo"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if entitlement.Normalize(user, time.Now().UTC()) {
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	transactions, err := s.repo.ListTransactions(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	return &AccountInfo{
		User:         user.Info(),
		Transactions: transactions,
	}, nil
}
