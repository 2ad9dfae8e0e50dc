package models

import "time"

// Виды транзакций.
const (
	TransactionDeposit  = "deposit"
	TransactionPurchase = "purchase"
)

// Статусы транзакций.
const (
	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionFailed    = "failed"
)

// Transaction представляет запись в журнале платежей пользователя.
// Журнал только дополняется, записи не изменяются.
type Transaction struct {
	ID          int       `json:"id"`
	UserUID     string    `json:"-"`
	Kind        string    `json:"type"`
	Amount      int64     `json:"amount"`
	OrderCode   string    `json:"orderCode"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
