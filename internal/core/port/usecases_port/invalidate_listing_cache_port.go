package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"
)

type InvalidateListingCacheUseCasePort interface {
	Execute(ctx context.Context, event domain.ListingChangedEvent) error
}
