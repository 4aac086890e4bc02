package constants

// Обменник событий об изменении объявлений
const (
	ListingEventsExchange = "listing_events"
)

// Ключи маршрутизации
const (
	RoutingKeyApartmentCreated = "listing.apartment.created"
	RoutingKeyRoomCreated      = "listing.room.created"
)

// Имена очередей
const (
	QueueListingCacheInvalidation = "listing_cache_invalidation"
)

const (
	FinalDLXExchange   = "listing_cache_invalidation_final_dlx"
	FinalDLQ           = "listing_cache_invalidation_final_dlq"
	FinalDLQRoutingKey = "listing.dlq.key"
)
