package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"
)

type SignUpUseCasePort interface {
	Execute(ctx context.Context, creds domain.Credentials) (*domain.SignUpResult, error)
}

type SignInUseCasePort interface {
	Execute(ctx context.Context, creds domain.Credentials) (*domain.AuthSession, error)
}

type SignOutUseCasePort interface {
	Execute(ctx context.Context, session *domain.AuthSession) error
}

type GetCurrentUserUseCasePort interface {
	Execute(ctx context.Context, accessToken string) (*domain.User, error)
}
