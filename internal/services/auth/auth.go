// Package auth содержит логику бизнес-уровня для регистрации
// и аутентификации пользователей, включая вход через Google.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/floodsense/backend/internal/googleauth"
	"github.com/floodsense/backend/internal/lib/entitlement"
	"github.com/floodsense/backend/internal/lib/jwt"
	"github.com/floodsense/backend/internal/lib/password"
	"github.com/floodsense/backend/internal/models"
	"github.com/floodsense/backend/internal/storage/repository"
)

// ErrInvalidCredentials возвращается при неверной паре почта/пароль.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его UID.
	CreateUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает пользователя по почте или ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateUser сохраняет изменённые поля пользователя.
	UpdateUser(ctx context.Context, user *models.User) error
}

// AuthService отвечает за регистрацию, вход и обмен Google-токена.
type AuthService struct {
	users      UserRepository
	jwtMaker   jwt.Maker
	verifier   googleauth.Verifier
	adminEmail string // Зарезервированная почта администратора, из конфига
	log        *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, verifier googleauth.Verifier,
	adminEmail string, log *slog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		jwtMaker:   jwtMaker,
		verifier:   verifier,
		adminEmail: strings.ToLower(adminEmail),
		log:        log,
	}
}

// SignUp создает нового пользователя. Почта, совпадающая с зарезервированной
// почтой администратора, получает роль admin и доступ к карте сразу.
func (s *AuthService) SignUp(ctx context.Context, name, email, rawPassword string) (string, *models.User, error) {
	const op = "services.auth.SignUp"

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return "", nil, fmt.Errorf("%s: %w", op, repository.ErrEmailTaken)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	user := s.newUser(name, email, hashed)
	uid, err := s.users.CreateUser(ctx, *user)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	user.UID = uid

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("email", user.Email), slog.String("role", user.Role))
	return token, user, nil
}

// SignIn проверяет пароль пользователя, нормализует состояние доступа
// и генерирует JWT.
func (s *AuthService) SignIn(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "services.auth.SignIn"

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return s.issue(ctx, op, user)
}

// GoogleSignIn проверяет ID-токен Google и находит или создаёт
// учётную запись с той же логикой назначения администратора, что и SignUp.
func (s *AuthService) GoogleSignIn(ctx context.Context, credential string) (string, *models.User, error) {
	const op = "services.auth.GoogleSignIn"

	claims, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	email := strings.ToLower(claims.Email)
	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		name := claims.Name
		if name == "" {
			name, _, _ = strings.Cut(email, "@")
		}
		placeholder, err := password.RandomPlaceholder()
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		user = s.newUser(name, email, placeholder)
		user.AvatarURL = claims.Picture
		uid, err := s.users.CreateUser(ctx, *user)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
		user.UID = uid
		s.log.Info("user created via google", slog.String("email", email))
	} else if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.issue(ctx, op, user)
}

// issue нормализует состояние пользователя, сохраняет изменения
// и выпускает токен. Общий хвост всех путей входа.
func (s *AuthService) issue(ctx context.Context, op string, user *models.User) (string, *models.User, error) {
	if entitlement.Normalize(user, time.Now().UTC()) {
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return "", nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

func (s *AuthService) newUser(name, email, passwordHash string) *models.User {
	now := time.Now().UTC()
	user := &models.User{
		Name:          name,
		Email:         email,
		PasswordHash:  passwordHash,
		Role:          models.RoleUser,
		UpgradeStatus: models.UpgradeNone,
		CreatedAt:     now,
	}
	if email == s.adminEmail {
		user.Role = models.RoleAdmin
		user.HasMapAccess = true
		user.UpgradeStatus = models.UpgradeApproved
		user.MapAccessGrantedAt = &now
	}
	return user
}
