// Package googleauth проверяет ID-токены Google Identity Services
// и извлекает из них данные профиля пользователя.
package googleauth

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"
)

// Claims — данные профиля из проверенного ID-токена.
type Claims struct {
	Email   string // Электронная почта (проверенная провайдером)
	Name    string // Отображаемое имя
	Picture string // Ссылка на аватар
}

// Verifier описывает проверку ID-токена внешнего провайдера.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Claims, error)
}

// IDTokenVerifier проверяет токены против публичных ключей Google
// с аудиторией, равной client id приложения.
type IDTokenVerifier struct {
	clientID string
}

// New создаёт верификатор для указанного client id.
func New(clientID string) *IDTokenVerifier {
	return &IDTokenVerifier{clientID: clientID}
}

// Verify валидирует подпись и аудиторию токена и возвращает Claims.
func (v *IDTokenVerifier) Verify(ctx context.Context, credential string) (*Claims, error) {
	const op = "googleauth.Verify"

	payload, err := idtoken.Validate(ctx, credential, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%s: token has no email claim", op)
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &Claims{
		Email:   email,
		Name:    name,
		Picture: picture,
	}, nil
}
