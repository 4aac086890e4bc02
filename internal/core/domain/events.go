package domain

import "time"

const (
	EventApartmentCreated = "ApartmentCreatedEvent"
	EventRoomCreated      = "RoomCreatedEvent"
	EventVersionV1        = "1.0.0"
)

// ListingChangedEvent - событие об изменении набора объявлений
type ListingChangedEvent struct {
	Type        string
	ApartmentID string
	RoomID      string // пусто для EventApartmentCreated
	OccurredAt  time.Time
}
