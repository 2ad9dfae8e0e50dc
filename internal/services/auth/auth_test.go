package auth

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/floodsense/backend/internal/googleauth"
	"github.com/floodsense/backend/internal/lib/jwt"
	"github.com/floodsense/backend/internal/lib/password"
	"github.com/floodsense/backend/internal/models"
	"github.com/floodsense/backend/internal/storage/repository"
)

// MockUserRepository реализует интерфейс UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockVerifier реализует интерфейс googleauth.Verifier.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, credential string) (*googleauth.Claims, error) {
	args := m.Called(ctx, credential)
	if res := args.Get(0); res != nil {
		return res.(*googleauth.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestService(repo *MockUserRepository, verifier *MockVerifier) *AuthService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	return NewAuthService(repo, maker, verifier, "admin@gmail.com", logger)
}

func TestSignUp_AdminEmailGetsAccess(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetUserByEmail", mock.Anything, "admin@gmail.com").
		Return(nil, repository.ErrUserNotFound)
	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Role == models.RoleAdmin && u.HasMapAccess &&
			u.UpgradeStatus == models.UpgradeApproved
	})).Return("admin-uid", nil)

	svc := newTestService(repo, new(MockVerifier))
	token, user, err := svc.SignUp(context.Background(), "Admin", "Admin@Gmail.com", "secret123")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.HasMapAccess)
	assert.Equal(t, models.UpgradeApproved, user.UpgradeStatus)
	repo.AssertExpectations(t)
}

func TestSignUp_RegularUserWithoutAccess(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(nil, repository.ErrUserNotFound)
	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Role == models.RoleUser && !u.HasMapAccess &&
			u.UpgradeStatus == models.UpgradeNone
	})).Return("user-uid", nil)

	svc := newTestService(repo, new(MockVerifier))
	_, user, err := svc.SignUp(context.Background(), "User", "user@example.com", "secret123")

	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.HasMapAccess)
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetUserByEmail", mock.Anything, "taken@example.com").
		Return(&models.User{Email: "taken@example.com"}, nil)

	svc := newTestService(repo, new(MockVerifier))
	_, _, err := svc.SignUp(context.Background(), "User", "taken@example.com", "secret123")

	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestSignIn_Success(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	repo := new(MockUserRepository)
	repo.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UID: "uid", Email: "user@example.com",
			PasswordHash: hash, Role: models.RoleUser, UpgradeStatus: models.UpgradeNone}, nil)

	svc := newTestService(repo, new(MockVerifier))
	token, user, err := svc.SignIn(context.Background(), "user@example.com", "secret123")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "uid", user.UID)
}

func TestSignIn_WrongPassword(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)

	repo := new(MockUserRepository)
	repo.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{Email: "user@example.com", PasswordHash: hash,
			Role: models.RoleUser}, nil)

	svc := newTestService(repo, new(MockVerifier))
	_, _, err = svc.SignIn(context.Background(), "user@example.com", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignIn_UnknownEmailHidesReason(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").
		Return(nil, repository.ErrUserNotFound)

	svc := newTestService(repo, new(MockVerifier))
	_, _, err := svc.SignIn(context.Background(), "ghost@example.com", "whatever")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignIn_NormalizesExpiredAccess(t *testing.T) {
	hash, err := password.GetHash("secret123")
	require.NoError(t, err)
	past := time.Now().UTC().AddDate(0, 0, -1)

	repo := new(MockUserRepository)
	repo.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UID: "uid", Email: "user@example.com", PasswordHash: hash,
			Role: models.RoleUser, HasMapAccess: true,
			UpgradeStatus: models.UpgradeApproved, MapAccessExpiry: &past}, nil)
	repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return !u.HasMapAccess && u.UpgradeStatus == models.UpgradeNone
	})).Return(nil)

	svc := newTestService(repo, new(MockVerifier))
	_, user, err := svc.SignIn(context.Background(), "user@example.com", "secret123")

	require.NoError(t, err)
	assert.False(t, user.HasMapAccess)
	repo.AssertExpectations(t)
}

func TestGoogleSignIn_CreatesUser(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetUserByEmail", mock.Anything, "new@example.com").
		Return(nil, repository.ErrUserNotFound)
	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "new@example.com" && u.Role == models.RoleUser &&
			u.AvatarURL == "https://example.com/pic.jpg" && u.PasswordHash != ""
	})).Return("new-uid", nil)

	verifier := new(MockVerifier)
	verifier.On("Verify", mock.Anything, "google-credential").
		Return(&googleauth.Claims{Email: "New@Example.com", Name: "New User",
			Picture: "https://example.com/pic.jpg"}, nil)

	svc := newTestService(repo, verifier)
	token, user, err := svc.GoogleSignIn(context.Background(), "google-credential")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "new-uid", user.UID)
	repo.AssertExpectations(t)
	verifier.AssertExpectations(t)
}

func TestGoogleSignIn_ExistingUser(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UID: "uid", Email: "user@example.com",
			Role: models.RoleUser, UpgradeStatus: models.UpgradeNone}, nil)

	verifier := new(MockVerifier)
	verifier.On("Verify", mock.Anything, "google-credential").
		Return(&googleauth.Claims{Email: "user@example.com", Name: "User"}, nil)

	svc := newTestService(repo, verifier)
	_, user, err := svc.GoogleSignIn(context.Background(), "google-credential")

	require.NoError(t, err)
	assert.Equal(t, "uid", user.UID)
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}
