package usecase

import (
	"context"
	"errors"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"strings"
)

type SignInUseCase struct {
	auth port.AuthProviderPort
}

func NewSignInUseCase(auth port.AuthProviderPort) *SignInUseCase {
	return &SignInUseCase{auth: auth}
}

func (uc *SignInUseCase) Execute(ctx context.Context, creds domain.Credentials) (*domain.AuthSession, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SignIn",
		"email":    creds.Email,
	})
	ucLogger.Info("Use case started: attempting to login user", nil)

	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		ucLogger.Warn("Login failed: empty credentials", nil)
		return nil, domain.ErrInvalidCredentials
	}

	session, err := uc.auth.SignIn(ctx, creds)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			ucLogger.Warn("Login failed: invalid credentials", nil)
		} else {
			ucLogger.Error("Auth provider failed to sign in user", err, nil)
		}
		return nil, err
	}

	ucLogger.Info("Use case finished: user logged in successfully", port.Fields{"user_id": session.User.ID})
	return session, nil
}
