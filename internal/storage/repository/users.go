package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/floodsense/backend/internal/models"
)

const userColumns = `uid, name, email, password_hash, role, has_map_access,
	upgrade_status, upgrade_requested_at, map_access_granted_at,
	map_access_expiry, avatar_url, balance, created_at`

// scanUser читает одну строку users в модель,
// разворачивая nullable-даты.
func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var upgradeRequestedAt, mapAccessGrantedAt, mapAccessExpiry sql.NullTime
	if err := row.Scan(&u.UID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.HasMapAccess, &u.UpgradeStatus, &upgradeRequestedAt,
		&mapAccessGrantedAt, &mapAccessExpiry, &u.AvatarURL, &u.Balance,
		&u.CreatedAt); err != nil {
		return nil, err
	}
	if upgradeRequestedAt.Valid {
		u.UpgradeRequestedAt = &upgradeRequestedAt.Time
	}
	if mapAccessGrantedAt.Valid {
		u.MapAccessGrantedAt = &mapAccessGrantedAt.Time
	}
	if mapAccessExpiry.Valid {
		u.MapAccessExpiry = &mapAccessExpiry.Time
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (name, email, password_hash, role, has_map_access,
			      upgrade_status, map_access_granted_at, avatar_url)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Role, user.HasMapAccess,
		user.UpgradeStatus, user.MapAccessGrantedAt, user.AvatarURL).Scan(&newUID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по его почте (в нижнем регистре).
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = lower($1)`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей в порядке регистрации.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	return s.listUsers(ctx, op, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
}

// ListUsersByUpgradeStatus возвращает пользователей с указанным статусом запроса.
func (s *Storage) ListUsersByUpgradeStatus(ctx context.Context, status string) ([]*models.User, error) {
	const op = "storage.ListUsersByUpgradeStatus"
	return s.listUsers(ctx, op,
		`SELECT `+userColumns+` FROM users WHERE upgrade_status = $1 ORDER BY upgrade_requested_at`,
		status)
}

func (s *Storage) listUsers(ctx context.Context, op, query string, args ...any) ([]*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser сохраняет изменяемые поля пользователя.
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET name = $1, email = lower($2), role = $3, has_map_access = $4,
			      upgrade_status = $5, upgrade_requested_at = $6,
			      map_access_granted_at = $7, map_access_expiry = $8,
			      avatar_url = $9
			  WHERE uid = $10`
	res, err := s.DB.ExecContext(ctx, query,
		user.Name, user.Email, user.Role, user.HasMapAccess,
		user.UpgradeStatus, user.UpgradeRequestedAt,
		user.MapAccessGrantedAt, user.MapAccessExpiry,
		user.AvatarURL, user.UID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// DeleteUser удаляет пользователя вместе с его транзакциями.
func (s *Storage) DeleteUser(ctx context.Context, userUID string) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}
