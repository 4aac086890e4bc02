package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

// AuthClient реализует AuthProviderPort поверх REST API GoTrue
type AuthClient struct {
	*client
}

func NewAuthClient(cfg Config) (*AuthClient, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &AuthClient{client: c}, nil
}

type credentialsDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u userDTO) toDomain() domain.User {
	return domain.User{ID: u.ID, Email: u.Email, Role: u.Role}
}

type sessionDTO struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	User         *userDTO `json:"user"`
}

func (s sessionDTO) toDomain() *domain.AuthSession {
	session := &domain.AuthSession{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
	}
	if s.User != nil {
		session.User = s.User.toDomain()
	}
	return session
}

// signUpResponseDTO: с подтверждением email приходит только пользователь (поля верхнего уровня),
// без подтверждения - сессия с вложенным user
type signUpResponseDTO struct {
	sessionDTO
	userDTO
}

// SignUp регистрирует пользователя
func (c *AuthClient) SignUp(ctx context.Context, creds domain.Credentials) (*domain.SignUpResult, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "SupabaseAuthClient", "method": "SignUp"})

	var resp signUpResponseDTO
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/signup", "", credentialsDTO(creds), &resp); err != nil {
		logger.Warn("Sign up rejected by provider", port.Fields{"error": err.Error()})
		return nil, mapAuthError(err)
	}

	if resp.AccessToken != "" {
		session := resp.sessionDTO.toDomain()
		return &domain.SignUpResult{User: session.User, Session: session}, nil
	}
	return &domain.SignUpResult{User: resp.userDTO.toDomain()}, nil
}

// SignIn выполняет вход по email и паролю
func (c *AuthClient) SignIn(ctx context.Context, creds domain.Credentials) (*domain.AuthSession, error) {
	var resp sessionDTO
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", credentialsDTO(creds), &resp); err != nil {
		return nil, mapAuthError(err)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: provider returned no access token", domain.ErrUpstream)
	}
	return resp.toDomain(), nil
}

// SignOut отзывает сессию
func (c *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil); err != nil {
		return mapAuthError(err)
	}
	return nil
}

// GetUser возвращает владельца токена
func (c *AuthClient) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	var resp userDTO
	if err := c.doJSON(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &resp); err != nil {
		return nil, mapAuthError(err)
	}
	user := resp.toDomain()
	return &user, nil
}

// mapAuthError переводит ответы GoTrue в доменные ошибки
func mapAuthError(err error) error {
	var se *statusError
	if !errors.As(err, &se) {
		return err
	}

	switch se.Body.ErrorCode {
	case "user_already_exists", "email_exists":
		return fmt.Errorf("%w: %s", domain.ErrEmailInUse, se.Body.text())
	case "invalid_credentials", "email_not_confirmed":
		return fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, se.Body.text())
	case "weak_password", "validation_failed", "email_address_invalid":
		return fmt.Errorf("%w: %s", domain.ErrValidation, se.Body.text())
	case "bad_jwt", "session_not_found", "no_authorization":
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, se.Body.text())
	}

	switch {
	case se.Body.ErrorName == "invalid_grant":
		return fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, se.Body.text())
	case se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, se.Body.text())
	case se.Status == http.StatusBadRequest || se.Status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrValidation, se.Body.text())
	default:
		return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}
}
