package local_events

import (
	"context"
	"fmt"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"
)

// ListingEventsDispatcher доставляет события внутри процесса, когда брокер выключен
type ListingEventsDispatcher struct {
	useCase usecases_port.InvalidateListingCacheUseCasePort
}

func NewListingEventsDispatcher(useCase usecases_port.InvalidateListingCacheUseCasePort) (*ListingEventsDispatcher, error) {
	if useCase == nil {
		return nil, fmt.Errorf("invalidate use case cannot be nil")
	}
	return &ListingEventsDispatcher{useCase: useCase}, nil
}

// PublishListingChanged вызывает обработчик синхронно, ошибка возвращается вызывающему
func (d *ListingEventsDispatcher) PublishListingChanged(ctx context.Context, event domain.ListingChangedEvent) error {
	switch event.Type {
	case domain.EventApartmentCreated, domain.EventRoomCreated:
	default:
		return fmt.Errorf("unknown listing event type %q", event.Type)
	}

	contextkeys.LoggerFromContext(ctx).Debug("Dispatching listing event in-process", port.Fields{
		"event_type":   event.Type,
		"apartment_id": event.ApartmentID,
	})

	if err := d.useCase.Execute(ctx, event); err != nil {
		return fmt.Errorf("local dispatch of %s: %w", event.Type, err)
	}
	return nil
}

var _ port.ListingEventsPort = (*ListingEventsDispatcher)(nil)
