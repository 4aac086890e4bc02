package usecase

import (
	"context"
	"errors"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

type SignUpUseCase struct {
	auth port.AuthProviderPort
}

func NewSignUpUseCase(auth port.AuthProviderPort) *SignUpUseCase {
	return &SignUpUseCase{auth: auth}
}

func (uc *SignUpUseCase) Execute(ctx context.Context, creds domain.Credentials) (*domain.SignUpResult, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SignUp",
		"email":    creds.Email,
	})
	ucLogger.Info("Use case started: attempting to register user", nil)

	if err := creds.Validate(); err != nil {
		ucLogger.Warn("Registration rejected", port.Fields{"reason": err.Error()})
		return nil, err
	}

	result, err := uc.auth.SignUp(ctx, creds)
	if err != nil {
		if errors.Is(err, domain.ErrEmailInUse) {
			ucLogger.Warn("Registration failed: email already in use", nil)
		} else {
			ucLogger.Error("Auth provider failed to register user", err, nil)
		}
		return nil, err
	}

	ucLogger.Info("Use case finished: user registered", port.Fields{
		"user_id":               result.User.ID,
		"confirmation_required": result.Session == nil,
	})
	return result, nil
}
