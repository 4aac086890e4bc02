package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"listing-service/internal/contextkeys"
	"listing-service/internal/contracts"
	"listing-service/internal/core/port"
	usecases_port "listing-service/internal/core/port/usecases_port"
	"listing-service/pkg/rabbitmq/rabbitmq_common"
	"listing-service/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// CacheInvalidationConsumerAdapter слушает события об изменении объявлений и сбрасывает кэш
type CacheInvalidationConsumerAdapter struct {
	consumer *rabbitmq_consumer.DistributingConsumer
	useCase  usecases_port.InvalidateListingCacheUseCasePort
	logger   port.LoggerPort
}

func NewCacheInvalidationConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	useCase usecases_port.InvalidateListingCacheUseCasePort,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*CacheInvalidationConsumerAdapter, error) {
	adapter := &CacheInvalidationConsumerAdapter{
		useCase: useCase,
		logger:  logger.WithFields(port.Fields{"component": "CacheInvalidationConsumerAdapter"}),
	}

	consumerCfg.Logger = NewPkgLoggerBridge(logger.WithFields(port.Fields{
		"component":    "rabbitmq_consumer",
		"consumer_tag": consumerCfg.ConsumerTag,
	}))

	consumer, err := rabbitmq_consumer.NewDistributingConsumer(consumerCfg, adapter.handleDelivery, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for cache invalidation: %w", err)
	}
	adapter.consumer = consumer
	return adapter, nil
}

// Start блокируется до отмены ctx
func (a *CacheInvalidationConsumerAdapter) Start(ctx context.Context) error {
	return a.consumer.StartConsuming(ctx)
}

func (a *CacheInvalidationConsumerAdapter) Close() error {
	return a.consumer.Close()
}

func (a *CacheInvalidationConsumerAdapter) handleDelivery(d amqp.Delivery) error {
	traceID, _ := d.Headers["x-trace-id"].(string)
	if traceID == "" {
		traceID = uuid.New().String()
	}
	eventType, _ := d.Headers["event-type"].(string)
	eventVersion, _ := d.Headers["event-version"].(string)

	msgLogger := a.logger.WithFields(port.Fields{
		"trace_id":     traceID,
		"event_type":   eventType,
		"delivery_tag": d.DeliveryTag,
	})

	if err := contracts.ValidateEvent(eventType, eventVersion, d.Body); err != nil {
		msgLogger.Error("Message failed schema validation. Rejecting.", err, nil)
		return err
	}

	var dto listingEventDTO
	if err := json.Unmarshal(d.Body, &dto); err != nil {
		return fmt.Errorf("failed to unmarshal listing event: %w", err)
	}

	ctx := contextkeys.ContextWithLogger(context.Background(), msgLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	return a.useCase.Execute(ctx, dto.toDomain(eventType))
}
