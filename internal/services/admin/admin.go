// Package admin содержит логику бизнес-уровня для администрирования
// учётных записей и управления доступом к карте.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/floodsense/backend/internal/cache"
	"github.com/floodsense/backend/internal/lib/entitlement"
	"github.com/floodsense/backend/internal/models"
)

// grantDays — срок действия доступа при ручной выдаче администратором.
const grantDays = 30

// UserRepository описывает методы хранилища, нужные администрированию.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListUsersByUpgradeStatus(ctx context.Context, status string) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, userUID string) error
}

// Cache описывает инвалидацию кешированного статуса пользователя.
type Cache interface {
	Invalidate(key string) error
}

// AdminService реализует операции админ-панели.
type AdminService struct {
	repo  UserRepository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр AdminService.
func New(repo UserRepository, cache Cache, log *slog.Logger) *AdminService {
	return &AdminService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// UpdateParams — изменяемые администратором поля. nil означает «не трогать».
type UpdateParams struct {
	Name         *string
	Email        *string
	Role         *string
	HasMapAccess *bool
}

// ListUsers возвращает всех пользователей с нормализованным состоянием доступа.
func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "services.admin.ListUsers"
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := time.Now().UTC()
	for _, u := range users {
		if entitlement.Normalize(u, now) {
			if err := s.repo.UpdateUser(ctx, u); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			s.invalidateStatus(u.UID)
		}
	}
	return users, nil
}

// GetUser возвращает одного пользователя с нормализованным состоянием.
func (s *AdminService) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.admin.GetUser"
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if entitlement.Normalize(user, time.Now().UTC()) {
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.invalidateStatus(user.UID)
	}
	return user, nil
}

// UpdateUser применяет изменения к учётной записи. Выдача доступа
// через этот путь проставляет статус approved и дату выдачи.
func (s *AdminService) UpdateUser(ctx context.Context, userUID string, p UpdateParams) (*models.User, error) {
	const op = "services.admin.UpdateUser"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	if p.Name != nil && *p.Name != "" {
		user.Name = *p.Name
	}
	if p.Email != nil && *p.Email != "" {
		user.Email = *p.Email
	}
	if p.Role != nil && *p.Role != "" {
		user.Role = *p.Role
	}
	if p.HasMapAccess != nil {
		user.HasMapAccess = *p.HasMapAccess
		if *p.HasMapAccess {
			user.UpgradeStatus = models.UpgradeApproved
			user.MapAccessGrantedAt = &now
		}
	}
	entitlement.Normalize(user, now)

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateStatus(user.UID)
	return user, nil
}

// DeleteUser удаляет учётную запись.
func (s *AdminService) DeleteUser(ctx context.Context, userUID string) error {
	const op = "services.admin.DeleteUser"
	if err := s.repo.DeleteUser(ctx, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateStatus(userUID)
	s.log.Info("user deleted", slog.String("uid", userUID))
	return nil
}

// GrantMapAccess вручную выдаёт доступ на фиксированные 30 дней.
func (s *AdminService) GrantMapAccess(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.admin.GrantMapAccess"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	expiry := now.AddDate(0, 0, grantDays)
	user.HasMapAccess = true
	user.UpgradeStatus = models.UpgradeApproved
	user.MapAccessGrantedAt = &now
	user.MapAccessExpiry = &expiry
	entitlement.Normalize(user, now)

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateStatus(user.UID)
	s.log.Info("map access granted", slog.String("uid", userUID), slog.String("email", user.Email))
	return user, nil
}

// RevokeMapAccess снимает доступ и сбрасывает статус запроса.
func (s *AdminService) RevokeMapAccess(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.admin.RevokeMapAccess"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user.HasMapAccess = false
	user.UpgradeStatus = models.UpgradeNone
	user.MapAccessExpiry = nil
	entitlement.Normalize(user, time.Now().UTC())

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateStatus(user.UID)
	s.log.Info("map access revoked", slog.String("uid", userUID), slog.String("email", user.Email))
	return user, nil
}

// ListUpgradeRequests возвращает пользователей, ожидающих одобрения.
func (s *AdminService) ListUpgradeRequests(ctx context.Context) ([]*models.User, error) {
	const op = "services.admin.ListUpgradeRequests"
	users, err := s.repo.ListUsersByUpgradeStatus(ctx, models.UpgradePending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func (s *AdminService) invalidateStatus(userUID string) {
	if err := s.cache.Invalidate(cache.StatusKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate status cache",
			slog.String("uid", userUID), slog.Any("err", err))
	}
}
