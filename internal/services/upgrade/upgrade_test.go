package upgrade

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

func (m *MockUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockCache реализует интерфейс Cache.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newTestService(repo *MockUserRepository, c *MockCache) *UpgradeService {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(repo, c, logger)
}

func passthroughCache() *MockCache {
	c := new(MockCache)
	c.On("Get", mock.Anything, mock.Anything).Return(false, nil).Maybe()
	c.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	c.On("Invalidate", mock.Anything).Return(nil).Maybe()
	return c
}

func TestRequest_SetsPending(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetUser", mock.Anything, "uid").
		Return(&models.User{UID: "uid", Email: "user@example.com",
			Role: models.RoleUser, UpgradeStatus: models.UpgradeNone}, nil)
	repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.UpgradeStatus == models.UpgradePending && u.UpgradeRequestedAt != nil
	})).Return(nil)

	svc := newTestService(repo, passthroughCache())
	status, err := svc.Request(context.Background(), "uid")

	require.NoError(t, err)
	assert.Equal(t, models.UpgradePending, status.UpgradeStatus)
	repo.AssertExpectations(t)
}

func TestRequest_RejectsApprovedWithAccess(t *testing.T) {
	future := time.Now().UTC().AddDate(0, 0, 10)
	repo := new(MockUserRepository)
	repo.On("GetUser", mock.Anything, "uid").
		Return(&models.User{UID: "uid", Role: models.RoleUser, HasMapAccess: true,
			UpgradeStatus: models.UpgradeApproved, MapAccessExpiry: &future}, nil)

	svc := newTestService(repo, passthroughCache())
	_, err := svc.Request(context.Background(), "uid")

	assert.ErrorIs(t, err, ErrAlreadyHasAccess)
	repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
}

func TestRequest_ExpiredAccessAllowsNewRequest(t *testing.T) {
	past := time.Now().UTC().AddDate(0, 0, -1)
	repo := new(MockUserRepository)
	repo.On("GetUser", mock.Anything, "uid").
		Return(&models.User{UID: "uid", Role: models.RoleUser, HasMapAccess: true,
			UpgradeStatus: models.UpgradeApproved, MapAccessExpiry: &past}, nil)
	repo.On("UpdateUser", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, passthroughCache())
	status, err := svc.Request(context.Background(), "uid")

	require.NoError(t, err)
	assert.Equal(t, models.UpgradePending, status.UpgradeStatus)
}

func TestGetStatus_ExpiredAccessIsRevoked(t *testing.T) {
	past := time.Now().UTC().AddDate(0, 0, -1)
	repo := new(MockUserRepository)
	repo.On("GetUser", mock.Anything, "uid").
		Return(&models.User{UID: "uid", Role: models.RoleUser, HasMapAccess: true,
			UpgradeStatus: models.UpgradeApproved, MapAccessExpiry: &past}, nil)
	repo.On("UpdateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return !u.HasMapAccess && u.UpgradeStatus == models.UpgradeNone
	})).Return(nil)

	svc := newTestService(repo, passthroughCache())
	status, err := svc.GetStatus(context.Background(), "uid")

	require.NoError(t, err)
	assert.False(t, status.HasMapAccess)
	assert.Equal(t, models.UpgradeNone, status.UpgradeStatus)
	repo.AssertExpectations(t)
}

func TestGetStatus_ServedFromCache(t *testing.T) {
	repo := new(MockUserRepository)
	c := new(MockCache)
	c.On("Get", "user:status:uid", mock.Anything).
		Run(func(args mock.Arguments) {
			st := args.Get(1).(*Status)
			st.UpgradeStatus = models.UpgradeApproved
			st.HasMapAccess = true
		}).Return(true, nil)

	svc := newTestService(repo, c)
	status, err := svc.GetStatus(context.Background(), "uid")

	require.NoError(t, err)
	assert.True(t, status.HasMapAccess)
	repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}
