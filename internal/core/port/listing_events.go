package port

import (
	"context"
	"listing-service/internal/core/domain"
)

// ListingEventsPort публикует события об изменении объявлений
type ListingEventsPort interface {
	PublishListingChanged(ctx context.Context, event domain.ListingChangedEvent) error
}

// EventListenerPort - входящий адаптер, который слушает брокер
type EventListenerPort interface {
	Start(ctx context.Context) error
	Close() error
}
