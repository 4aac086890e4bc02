package contextkeys

import (
	"context"
	"listing-service/internal/core/domain"
)

type authSessionKeyType struct{}

var authSessionKey = authSessionKeyType{}

// ContextWithAuthSession кладёт сессию пользователя в контекст запроса
func ContextWithAuthSession(ctx context.Context, session *domain.AuthSession) context.Context {
	return context.WithValue(ctx, authSessionKey, session)
}

// AuthSessionFromContext возвращает сессию, если запрос прошёл аутентификацию
func AuthSessionFromContext(ctx context.Context) (*domain.AuthSession, bool) {
	session, ok := ctx.Value(authSessionKey).(*domain.AuthSession)
	return session, ok && session != nil
}
