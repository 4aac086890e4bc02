package supabase

import (
	"context"
	"errors"
	"fmt"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier реализует TokenVerifierPort.
// С секретом проекта токен проверяется локально, без секрета - запросом к провайдеру.
type TokenVerifier struct {
	signingKey []byte
	provider   port.AuthProviderPort
}

func NewTokenVerifier(jwtSecret string, provider port.AuthProviderPort) (*TokenVerifier, error) {
	if jwtSecret == "" && provider == nil {
		return nil, fmt.Errorf("either JWT secret or auth provider is required")
	}
	return &TokenVerifier{signingKey: []byte(jwtSecret), provider: provider}, nil
}

// supabaseClaims - claims access token Supabase. Subject - id пользователя.
type supabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (v *TokenVerifier) Verify(ctx context.Context, accessToken string) (*domain.User, error) {
	if len(v.signingKey) == 0 {
		user, err := v.provider.GetUser(ctx, accessToken)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return nil, domain.ErrTokenInvalid
			}
			return nil, err
		}
		return user, nil
	}
	return v.verifyLocally(ctx, accessToken)
}

func (v *TokenVerifier) verifyLocally(ctx context.Context, accessToken string) (*domain.User, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "TokenVerifier",
		"method":    "Verify",
	})

	token, err := jwt.ParseWithClaims(accessToken, &supabaseClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			logger.Warn("Token has expired", nil)
		} else {
			logger.Warn("Invalid token format or signature", port.Fields{"error": err.Error()})
		}
		return nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*supabaseClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.User{ID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
