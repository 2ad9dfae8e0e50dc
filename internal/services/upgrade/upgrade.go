// Package upgrade содержит логику запросов пользователей на доступ к карте.
package upgrade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/floodsense/backend/internal/cache"
	"github.com/floodsense/backend/internal/lib/entitlement"
	"github.com/floodsense/backend/internal/models"
)

// ErrAlreadyHasAccess возвращается при запросе доступа пользователем,
// у которого он уже есть.
var ErrAlreadyHasAccess = errors.New("user already has map access")

// statusTTL — время жизни кешированного статуса.
const statusTTL = time.Minute

// UserRepository описывает методы хранилища для работы с запросами.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// Cache описывает методы для кэширования статуса.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Status — состояние доступа пользователя для ответа клиенту.
type Status struct {
	UpgradeStatus      string     `json:"upgradeStatus"`
	HasMapAccess       bool       `json:"hasMapAccess"`
	UpgradeRequestedAt *time.Time `json:"upgradeRequestedAt,omitempty"`
	MapAccessGrantedAt *time.Time `json:"mapAccessGrantedAt,omitempty"`
	MapAccessExpiry    *time.Time `json:"mapAccessExpiry,omitempty"`
}

// UpgradeService реализует подачу и опрос запросов на доступ.
type UpgradeService struct {
	repo  UserRepository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр UpgradeService.
func New(repo UserRepository, cache Cache, log *slog.Logger) *UpgradeService {
	return &UpgradeService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Request помечает пользователя ожидающим одобрения администратора.
// Для уже одобренного пользователя с действующим доступом — ошибка.
func (s *UpgradeService) Request(ctx context.Context, userUID string) (*Status, error) {
	const op = "services.upgrade.Request"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	entitlement.Normalize(user, now)
	if user.UpgradeStatus == models.UpgradeApproved && user.HasMapAccess {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyHasAccess)
	}

	user.UpgradeStatus = models.UpgradePending
	user.UpgradeRequestedAt = &now
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(cache.StatusKey(userUID)); err != nil {
		s.log.Warn("failed to invalidate status cache", slog.Any("err", err))
	}

	s.log.Info("upgrade requested", slog.String("email", user.Email))
	return statusOf(user), nil
}

// GetStatus возвращает состояние доступа, проводя его через
// нормализацию инвариантов. Результат кешируется на минуту.
func (s *UpgradeService) GetStatus(ctx context.Context, userUID string) (*Status, error) {
	const op = "services.upgrade.GetStatus"

	cacheKey := cache.StatusKey(userUID)
	var cached Status
	if found, err := s.cache.Get(cacheKey, &cached); err != nil {
		s.log.Warn("status cache read failed", slog.Any("err", err))
	} else if found {
		return &cached, nil
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if entitlement.Normalize(user, time.Now().UTC()) {
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	status := statusOf(user)
	if err := s.cache.Set(cacheKey, status, statusTTL); err != nil {
		s.log.Warn("failed to cache status", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return status, nil
}

func statusOf(u *models.User) *Status {
	return &Status{
		UpgradeStatus:      u.UpgradeStatus,
		HasMapAccess:       u.HasMapAccess,
		UpgradeRequestedAt: u.UpgradeRequestedAt,
		MapAccessGrantedAt: u.MapAccessGrantedAt,
		MapAccessExpiry:    u.MapAccessExpiry,
	}
}
