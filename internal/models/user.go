// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, права доступа к карте и баланс.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// Роли пользователя.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Статусы запроса на расширение доступа.
const (
	UpgradeNone     = "none"
	UpgradePending  = "pending"
	UpgradeApproved = "approved"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID                string     // Уникальный идентификатор пользователя
	Name               string     // Отображаемое имя
	Email              string     // Электронная почта (уникальная, в нижнем регистре)
	PasswordHash       string     // Хэш пароля пользователя
	Role               string     // Роль пользователя, admin или user
	HasMapAccess       bool       // Признак доступа к карте
	UpgradeStatus      string     // Статус запроса на доступ: none, pending, approved
	UpgradeRequestedAt *time.Time // Дата подачи запроса на доступ
	MapAccessGrantedAt *time.Time // Дата выдачи доступа
	MapAccessExpiry    *time.Time // Дата истечения доступа, nil — бессрочно/нет
	AvatarURL          string     // Ссылка на загруженный аватар
	Balance            int64      // Накопленный баланс в минимальных единицах валюты
	CreatedAt          time.Time  // Дата регистрации
}

// UserInfo — представление пользователя для JSON-ответов,
// без хэша пароля.
type UserInfo struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Img                string     `json:"img,omitempty"`
	Role               string     `json:"role"`
	HasMapAccess       bool       `json:"hasMapAccess"`
	UpgradeStatus      string     `json:"upgradeStatus"`
	UpgradeRequestedAt *time.Time `json:"upgradeRequestedAt,omitempty"`
	MapAccessGrantedAt *time.Time `json:"mapAccessGrantedAt,omitempty"`
	MapAccessExpiry    *time.Time `json:"mapAccessExpiry,omitempty"`
	Balance            int64      `json:"balance"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// Info конвертирует User в UserInfo для выдачи наружу.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:                 u.UID,
		Name:               u.Name,
		Email:              u.Email,
		Img:                u.AvatarURL,
		Role:               u.Role,
		HasMapAccess:       u.HasMapAccess,
		UpgradeStatus:      u.UpgradeStatus,
		UpgradeRequestedAt: u.UpgradeRequestedAt,
		MapAccessGrantedAt: u.MapAccessGrantedAt,
		MapAccessExpiry:    u.MapAccessExpiry,
		Balance:            u.Balance,
		CreatedAt:          u.CreatedAt,
	}
}
