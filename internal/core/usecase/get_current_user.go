package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

type GetCurrentUserUseCase struct {
	auth port.AuthProviderPort
}

func NewGetCurrentUserUseCase(auth port.AuthProviderPort) *GetCurrentUserUseCase {
	return &GetCurrentUserUseCase{auth: auth}
}

func (uc *GetCurrentUserUseCase) Execute(ctx context.Context, accessToken string) (*domain.User, error) {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"use_case": "GetCurrentUser"})

	user, err := uc.auth.GetUser(ctx, accessToken)
	if err != nil {
		ucLogger.Warn("Failed to resolve current user", port.Fields{"reason": err.Error()})
		return nil, err
	}
	return user, nil
}
