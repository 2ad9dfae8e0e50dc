// Package user содержит логику работы с профилем пользователя.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/floodsense/backend/internal/lib/entitlement"
	"github.com/floodsense/backend/internal/models"
	"github.com/floodsense/backend/internal/storage/repository"
)

// UserRepository описывает методы хранилища для работы с профилем.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// UserService реализует чтение и изменение профиля.
type UserService struct {
	repo UserRepository
	log  *slog.Logger
}

// New создает новый экземпляр UserService.
func New(repo UserRepository, log *slog.Logger) *UserService {
	return &UserService{
		repo: repo,
		log:  log,
	}
}

// UpdateParams — изменяемые поля профиля. Nil-поле не трогается.
type UpdateParams struct {
	Name  *string
	Email *string
}

// GetProfile возвращает профиль, проводя его через нормализацию инвариантов.
func (s *UserService) GetProfile(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.user.GetProfile"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if entitlement.Normalize(user, time.Now().UTC()) {
		if err := s.repo.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return user, nil
}

// UpdateProfile изменяет имя и почту пользователя.
// Пустые после обрезки пробелов значения игнорируются.
func (s *UserService) UpdateProfile(ctx context.Context, userUID string, params UpdateParams) (*models.User, error) {
	const op = "services.user.UpdateProfile"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if params.Name != nil {
		if name := strings.TrimSpace(*params.Name); name != "" {
			user.Name = name
		}
	}
	if params.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*params.Email))
		if email != "" && email != user.Email {
			if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
				return nil, fmt.Errorf("%s: %w", op, repository.ErrEmailTaken)
			} else if !errors.Is(err, repository.ErrUserNotFound) {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			user.Email = email
		}
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("profile updated", slog.String("email", user.Email))
	return user, nil
}

// SetAvatar сохраняет ссылку на загруженный аватар.
func (s *UserService) SetAvatar(ctx context.Context, userUID, avatarURL string) (*models.User, error) {
	const op = "services.user.SetAvatar"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user.AvatarURL = avatarURL
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}
