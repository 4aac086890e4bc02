package port

import (
	"context"
	"listing-service/internal/core/domain"
)

// ListingFetcherPort - источник полного набора объявлений с комнатами.
// Порядок результата сохраняется во всех последующих операциях.
type ListingFetcherPort interface {
	FetchAllListings(ctx context.Context) ([]domain.Listing, error)
}

// ListingCachePort - кэш набора объявлений, который нужно сбрасывать при изменениях
type ListingCachePort interface {
	Invalidate(ctx context.Context) error
}

// ApartmentRepositoryPort - контракт для хранилища квартир и комнат
type ApartmentRepositoryPort interface {
	CreateApartment(ctx context.Context, draft domain.ApartmentDraft) (*domain.Listing, error)
	ListApartmentRefs(ctx context.Context) ([]domain.ApartmentRef, error)
	// CreateRoom возвращает domain.ErrApartmentNotFound, если квартиры нет
	CreateRoom(ctx context.Context, room domain.NewRoom) (*domain.Room, error)
	// GetRoomByID возвращает domain.ErrRoomNotFound, если комнаты нет
	GetRoomByID(ctx context.Context, roomID string) (*domain.Room, error)
}
