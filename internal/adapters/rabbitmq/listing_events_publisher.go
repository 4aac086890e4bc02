package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"listing-service/internal/constants"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
)

// messagePublisher - то, что адаптеру нужно от rabbitmq_producer.Publisher
type messagePublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

var routingKeys = map[string]string{
	domain.EventApartmentCreated: constants.RoutingKeyApartmentCreated,
	domain.EventRoomCreated:      constants.RoutingKeyRoomCreated,
}

// ListingEventsPublisher реализует ListingEventsPort для RabbitMQ
type ListingEventsPublisher struct {
	producer messagePublisher
}

func NewListingEventsPublisher(producer messagePublisher) (*ListingEventsPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	return &ListingEventsPublisher{producer: producer}, nil
}

func (a *ListingEventsPublisher) PublishListingChanged(ctx context.Context, event domain.ListingChangedEvent) error {
	routingKey, ok := routingKeys[event.Type]
	if !ok {
		return fmt.Errorf("rabbitmq adapter: unknown listing event type '%s'", event.Type)
	}

	adapterLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":    "ListingEventsPublisher",
		"routing_key":  routingKey,
		"event_type":   event.Type,
		"apartment_id": event.ApartmentID,
	})

	body, err := json.Marshal(toListingEventDTO(event))
	if err != nil {
		return fmt.Errorf("failed to marshal listing event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers: amqp.Table{
			"event-type":    event.Type,
			"event-version": domain.EventVersionV1,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.producer.Publish(publishCtx, routingKey, msg); err != nil {
		adapterLogger.Error("Failed to publish listing event", err, nil)
		return fmt.Errorf("rabbitmq adapter: failed to publish %s: %w", event.Type, err)
	}

	adapterLogger.Debug("Listing event published", nil)
	return nil
}
