package usecase

import (
	"context"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

// InvalidateListingCacheUseCase сбрасывает кэш объявлений по событию об изменении
type InvalidateListingCacheUseCase struct {
	cache port.ListingCachePort
}

func NewInvalidateListingCacheUseCase(cache port.ListingCachePort) *InvalidateListingCacheUseCase {
	return &InvalidateListingCacheUseCase{cache: cache}
}

func (uc *InvalidateListingCacheUseCase) Execute(ctx context.Context, event domain.ListingChangedEvent) error {
	ucLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case":     "InvalidateListingCache",
		"event_type":   event.Type,
		"apartment_id": event.ApartmentID,
	})

	if err := uc.cache.Invalidate(ctx); err != nil {
		ucLogger.Error("Failed to invalidate listing cache", err, nil)
		return err
	}

	ucLogger.Info("Listing cache invalidated", nil)
	return nil
}
