package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/floodsense/backend/internal/models"
)

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		wantDays int
	}{
		{"пакет 6 месяцев по нижней границе", 60000, 180},
		{"пакет 6 месяцев сверх порога", 150000, 180},
		{"пакет 3 месяца", 30000, 90},
		{"пакет 1 месяц", 10000, 30},
		{"пакет 1 месяц сверх порога", 15000, 30},
		{"пакет 2 дня", 2000, 2},
		{"пакет 1 день", 1000, 1},
		{"сумма между порогами", 1999, 1},
		{"сумма ниже минимума", 999, 0},
		{"нулевая сумма", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtensionFor(tt.amount)
			assert.Equal(t, tt.wantDays, got.Days)
		})
	}
}

func TestExtend(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -10)

	tests := []struct {
		name    string
		current *time.Time
		days    int
		want    time.Time
	}{
		{"нет текущего срока — отсчёт от сейчас", nil, 30, now.AddDate(0, 0, 30)},
		{"непросроченный срок продлевается", &future, 30, future.AddDate(0, 0, 30)},
		{"просроченный срок отсчитывается заново", &past, 30, now.AddDate(0, 0, 30)},
		{"срок равный now считается истёкшим", &now, 1, now.AddDate(0, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extend(tt.current, tt.days, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	tests := []struct {
		name        string
		user        models.User
		wantChanged bool
		check       func(t *testing.T, u *models.User)
	}{
		{
			name: "администратор без доступа получает его",
			user: models.User{Role: models.RoleAdmin, HasMapAccess: false, UpgradeStatus: models.UpgradeNone},
			wantChanged: true,
			check: func(t *testing.T, u *models.User) {
				assert.True(t, u.HasMapAccess)
				assert.Equal(t, models.UpgradeApproved, u.UpgradeStatus)
				assert.Nil(t, u.MapAccessExpiry)
			},
		},
		{
			name: "администратору снимается дата истечения",
			user: models.User{Role: models.RoleAdmin, HasMapAccess: true,
				UpgradeStatus: models.UpgradeApproved, MapAccessExpiry: &future},
			wantChanged: true,
			check: func(t *testing.T, u *models.User) {
				assert.Nil(t, u.MapAccessExpiry)
			},
		},
		{
			name: "администратор в норме не меняется",
			user: models.User{Role: models.RoleAdmin, HasMapAccess: true,
				UpgradeStatus: models.UpgradeApproved},
			wantChanged: false,
			check:       func(_ *testing.T, _ *models.User) {},
		},
		{
			name: "истёкший доступ снимается",
			user: models.User{Role: models.RoleUser, HasMapAccess: true,
				UpgradeStatus: models.UpgradeApproved, MapAccessExpiry: &past},
			wantChanged: true,
			check: func(t *testing.T, u *models.User) {
				assert.False(t, u.HasMapAccess)
				assert.Equal(t, models.UpgradeNone, u.UpgradeStatus)
			},
		},
		{
			name: "действующий доступ не трогается",
			user: models.User{Role: models.RoleUser, HasMapAccess: true,
				UpgradeStatus: models.UpgradeApproved, MapAccessExpiry: &future},
			wantChanged: false,
			check: func(t *testing.T, u *models.User) {
				assert.True(t, u.HasMapAccess)
			},
		},
		{
			name:        "пользователь без доступа не трогается",
			user:        models.User{Role: models.RoleUser, UpgradeStatus: models.UpgradeNone},
			wantChanged: false,
			check:       func(_ *testing.T, _ *models.User) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			changed := Normalize(&u, now)
			assert.Equal(t, tt.wantChanged, changed)
			tt.check(t, &u)
		})
	}
}
