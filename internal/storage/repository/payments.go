package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/floodsense/backend/internal/lib/entitlement"
	"github.com/floodsense/backend/internal/models"
)

// ApplyPaymentParams описывает один подтверждённый платёж,
// зачисляемый на учётную запись.
type ApplyPaymentParams struct {
	UserUID     string           // Пользователь, которому зачисляется платёж
	Amount      int64            // Сумма в минимальных единицах
	OrderCode   string           // Код заказа провайдера, ключ идемпотентности
	Kind        string           // Вид транзакции: purchase или deposit
	Description string           // Описание для журнала транзакций (deposit)
	Tier        entitlement.Tier // Тариф продления; нулевой тариф — без доступа
	Now         time.Time        // Момент применения
}

// ApplyPayment атомарно применяет платёж: блокирует строку пользователя,
// проверяет, что код заказа ещё не применялся, зачисляет сумму на баланс,
// при ненулевом тарифе продлевает доступ и дописывает запись в журнал
// транзакций. Новая дата истечения вычисляется от срока, прочитанного
// уже под блокировкой: параллельные доставки разных заказов складывают
// продления, а не затирают друг друга.
// Повторная доставка того же кода заказа возвращает ErrDuplicateOrder,
// состояние при этом не меняется. Частичный уникальный индекс по
// order_code со статусом completed страхует от гонки параллельных доставок.
func (s *Storage) ApplyPayment(ctx context.Context, p ApplyPaymentParams) error {
	const op = "storage.ApplyPayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var currentExpiry sql.NullTime
	if err = tx.QueryRowContext(ctx,
		`SELECT map_access_expiry FROM users WHERE uid = $1 FOR UPDATE`,
		p.UserUID).Scan(&currentExpiry); err != nil {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	var duplicate bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM transactions
		     WHERE order_code = $1 AND status = $2
		 )`, p.OrderCode, models.TransactionCompleted).Scan(&duplicate); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if duplicate {
		return fmt.Errorf("%s: %w", op, ErrDuplicateOrder)
	}

	description := p.Description
	if p.Tier.Days > 0 {
		var current *time.Time
		if currentExpiry.Valid {
			current = &currentExpiry.Time
		}
		newExpiry := entitlement.Extend(current, p.Tier.Days, p.Now)
		description = p.Tier.Description(newExpiry)
		_, err = tx.ExecContext(ctx,
			`UPDATE users
			 SET balance = balance + $1,
			     has_map_access = true,
			     upgrade_status = $2,
			     map_access_expiry = $3,
			     map_access_granted_at = $4
			 WHERE uid = $5`,
			p.Amount, models.UpgradeApproved, newExpiry, p.Now, p.UserUID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET balance = balance + $1 WHERE uid = $2`,
			p.Amount, p.UserUID)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (user_uid, kind, amount, order_code, status, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.UserUID, p.Kind, p.Amount, p.OrderCode, models.TransactionCompleted,
		description, p.Now); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, ErrDuplicateOrder)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListTransactions возвращает журнал транзакций пользователя,
// новые записи первыми.
func (s *Storage) ListTransactions(ctx context.Context, userUID string) ([]models.Transaction, error) {
	const op = "storage.ListTransactions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, kind, amount, order_code, status, description, created_at
			  FROM transactions
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err = rows.Scan(&t.ID, &t.UserUID, &t.Kind, &t.Amount, &t.OrderCode,
			&t.Status, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
