package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"
)

type CreateApartmentUseCasePort interface {
	Execute(ctx context.Context, draft domain.ApartmentDraft) (*domain.Listing, error)
}

type ListApartmentsUseCasePort interface {
	Execute(ctx context.Context) ([]domain.ApartmentRef, error)
}

type AddRoomUseCasePort interface {
	Execute(ctx context.Context, session *domain.AuthSession, draft domain.RoomDraft) (*domain.Room, error)
}

type GetRoomUseCasePort interface {
	Execute(ctx context.Context, roomID string) (*domain.Room, error)
}
