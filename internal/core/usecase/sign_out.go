package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

type SignOutUseCase struct {
	auth port.AuthProviderPort
}

func NewSignOutUseCase(auth port.AuthProviderPort) *SignOutUseCase {
	return &SignOutUseCase{auth: auth}
}

func (uc *SignOutUseCase) Execute(ctx context.Context, session *domain.AuthSession) error {
	if session == nil {
		return domain.ErrUnauthorized
	}
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "SignOut",
		"user_id":  session.User.ID,
	})

	if err := uc.auth.SignOut(ctx, session.AccessToken); err != nil {
		ucLogger.Error("Auth provider failed to sign out user", err, nil)
		return err
	}

	ucLogger.Info("User signed out", nil)
	return nil
}
