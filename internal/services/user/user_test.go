package user

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/floodsense/backend/internal/models"
	"github.com/floodsense/backend/internal/storage/repository"
)

// MockUserRepository реализует интерфейс UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
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

func newTestService(repo *MockUserRepository) *UserService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(repo, logger)
}

func strptr(s string) *string { return &s }

func TestUpdateProfile_TrimsFields(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetUser", mock.Anything, "uid").
		Return(&models.User{UID: "uid", Name: "Old", Email: "old@example.com"}, nil)
	repo.On("GetUserByEmail", mock.Anything, "new@example.com").
		Return(nil, repository.ErrUserNotFound)
	repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Name == "New Name" && u.Email == "new@example.com"
	})).Return(nil)

	svc := newTestService(repo)
	user, err := svc.UpdateProfile(context.Background(), "uid", UpdateParams{
		Name:  strptr("  New Name  "),
		Email: strptr(" New@Example.com "),
	})

	require.NoError(t, err)
	assert.Equal(t, "New Name", user.Name)
	assert.Equal(t, "new@example.com", user.Email)
	repo.AssertExpectations(t)
}

func TestUpdateProfile_EmptyValuesIgnored(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetUser", mock.Anything, "uid").
		Return(&models.User{UID: "uid", Name: "Old", Email: "old@example.com"}, nil)
	repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Name == "Old" && u.Email == "old@example.com"
	})).Return(nil)

	svc := newTestService(repo)
	user, err := svc.UpdateProfile(context.Background(), "uid", UpdateParams{
		Name:  strptr("   "),
		Email: strptr(""),
	})

	require.NoError(t, err)
	assert.Equal(t, "Old", user.Name)
}

func TestUpdateProfile_EmailTaken(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetUser", mock.Anything, "uid").
		Return(&models.User{UID: "uid", Email: "old@example.com"}, nil)
	repo.On("GetUserByEmail", mock.Anything, "taken@example.com").
		Return(&models.User{UID: "other"}, nil)

	svc := newTestService(repo)
	_, err := svc.UpdateProfile(context.Background(), "uid", UpdateParams{
		Email: strptr("taken@example.com"),
	})

	assert.ErrorIs(t, err, repository.ErrEmailTaken)
	repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
}

func TestGetProfile_NormalizesExpiredAccess(t *testing.T) {
	past := time.Now().UTC().AddDate(0, 0, -3)
	repo := new(MockUserRepository)
	repo.On("GetUser", mock.Anything, "uid").
		Return(&models.User{UID: "uid", Role: models.RoleUser, HasMapAccess: true,
			UpgradeStatus: models.UpgradeApproved, MapAccessExpiry: &past}, nil)
	repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return !u.HasMapAccess
	})).Return(nil)

	svc := newTestService(repo)
	user, err := svc.GetProfile(context.Background(), "uid")

	require.NoError(t, err)
	assert.False(t, user.HasMapAccess)
	repo.AssertExpectations(t)
}

func TestSetAvatar(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetUser", mock.Anything, "uid").
		Return(&models.User{UID: "uid"}, nil)
	repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.AvatarURL == "/uploads/uid.png"
	})).Return(nil)

	svc := newTestService(repo)
	user, err := svc.SetAvatar(context.Background(), "uid", "/uploads/uid.png")

	require.NoError(t, err)
	assert.Equal(t, "/uploads/uid.png", user.AvatarURL)
}
