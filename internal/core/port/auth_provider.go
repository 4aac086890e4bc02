package port

import (
	"context"
	"listing-service/internal/core/domain"
)

// AuthProviderPort - внешний провайдер аутентификации.
// Пароли и выпуск токенов полностью на его стороне.
type AuthProviderPort interface {
	SignUp(ctx context.Context, creds domain.Credentials) (*domain.SignUpResult, error)
	SignIn(ctx context.Context, creds domain.Credentials) (*domain.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*domain.User, error)
}

// TokenVerifierPort проверяет access token и возвращает пользователя
type TokenVerifierPort interface {
	Verify(ctx context.Context, accessToken string) (*domain.User, error)
}
