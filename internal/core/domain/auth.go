package domain

import (
	"fmt"
	"strings"
)

// MinPasswordLength - минимальная длина пароля у провайдера
const MinPasswordLength = 6

// User - пользователь провайдера аутентификации
type User struct {
	ID    string
	Email string
	Role  string
}

// Credentials - email и пароль для регистрации и входа
type Credentials struct {
	Email    string
	Password string
}

// AuthSession - явный объект сессии вместо глобального состояния.
// Middleware кладёт его в контекст запроса, хендлеры читают только когда он нужен.
type AuthSession struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int // секунды
	User         User
}

// SignUpResult - результат регистрации. Session == nil, если провайдер требует подтверждение email.
type SignUpResult struct {
	User    User
	Session *AuthSession
}

// Validate - минимальная проверка перед обращением к провайдеру
func (c Credentials) Validate() error {
	if !strings.Contains(c.Email, "@") {
		return fmt.Errorf("%w: field 'email' must be a valid email", ErrValidation)
	}
	if len(c.Password) < MinPasswordLength {
		return fmt.Errorf("%w: field 'password' must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	return nil
}
