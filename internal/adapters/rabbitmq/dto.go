package rabbitmq

import (
	"time"

	"listing-service/internal/core/domain"
)

// listingEventDTO - тело событий ApartmentCreatedEvent и RoomCreatedEvent
type listingEventDTO struct {
	ApartmentID string    `json:"apartment_id"`
	RoomID      string    `json:"room_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func toListingEventDTO(event domain.ListingChangedEvent) listingEventDTO {
	return listingEventDTO{
		ApartmentID: event.ApartmentID,
		RoomID:      event.RoomID,
		OccurredAt:  event.OccurredAt.UTC(),
	}
}

func (d listingEventDTO) toDomain(eventType string) domain.ListingChangedEvent {
	return domain.ListingChangedEvent{
		Type:        eventType,
		ApartmentID: d.ApartmentID,
		RoomID:      d.RoomID,
		OccurredAt:  d.OccurredAt,
	}
}
