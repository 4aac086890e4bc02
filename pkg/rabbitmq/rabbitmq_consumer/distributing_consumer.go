package rabbitmq_consumer

import (
	"context"
	"fmt"
	"time"

	"listing-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler обрабатывает одно сообщение. Пакет сам решает, делать ack, nack или отправлять в DLX.
type MessageHandler func(delivery amqp.Delivery) error

type outcome int

const (
	outcomeAck outcome = iota
	outcomeDrop
	outcomeRetry
	outcomeDeadLetter
)

// resolveOutcome решает судьбу сообщения по результату обработчика
func resolveOutcome(processErr error, retryEnabled bool, deaths int64, maxRetries int) outcome {
	switch {
	case processErr == nil:
		return outcomeAck
	case !retryEnabled:
		return outcomeDrop
	case deaths < int64(maxRetries):
		return outcomeRetry
	default:
		return outcomeDeadLetter
	}
}

// DistributingConsumer обрабатывает каждое сообщение в отдельной горутине
type DistributingConsumer struct {
	baseConsumer *baseConsumer
	handler      MessageHandler
}

func NewDistributingConsumer(cfg ConsumerConfig, handler MessageHandler, connManager *rabbitmq_common.ConnectionManager) (*DistributingConsumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("distributing Consumer: message handler is required")
	}

	bc, err := newBaseConsumer(cfg, connManager)
	if err != nil {
		return nil, fmt.Errorf("distributing Consumer: %w", err)
	}

	return &DistributingConsumer{
		baseConsumer: bc,
		handler:      handler,
	}, nil
}

// StartConsuming блокируется до отмены ctx (возвращает nil) или закрытия соединения (возвращает ошибку)
func (c *DistributingConsumer) StartConsuming(ctx context.Context) error {
	bc := c.baseConsumer
	if bc.channel == nil || bc.connection == nil || bc.connection.IsClosed() {
		return fmt.Errorf("distributing Consumer: not connected")
	}

	msgs, err := bc.channel.Consume(
		bc.actualQueueName,
		bc.config.ConsumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("distributing Consumer: failed to register a consumer on queue '%s': %w", bc.actualQueueName, err)
	}

	bc.Logger.Info("[*] Waiting for messages on queue", "queue_name", bc.actualQueueName)

	go func() {
		for {
			// приоритетная проверка: после отмены новых обработчиков не запускаем
			select {
			case <-ctx.Done():
				return
			default:
			}

			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					bc.Logger.Info("Deliveries channel closed by RabbitMQ", "queue_name", bc.actualQueueName)
					return
				}
				bc.wg.Add(1)
				go func(delivery amqp.Delivery) {
					defer bc.wg.Done()
					c.process(delivery)
				}(d)
			}
		}
	}()

	notifyClose := bc.connection.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-ctx.Done():
		bc.Logger.Info("Context cancelled. Shutting down consumer.", "queue_name", bc.actualQueueName)
		return nil
	case err := <-notifyClose:
		bc.Logger.Error(err, "Connection closed for consumer", "queue_name", bc.actualQueueName)
		return err
	}
}

func (c *DistributingConsumer) process(delivery amqp.Delivery) {
	bc := c.baseConsumer
	processErr := c.handler(delivery)
	if processErr != nil {
		bc.Logger.Error(processErr, "Handler error for message", "delivery_tag", delivery.DeliveryTag)
	}

	deaths := deathCount(delivery.Headers, bc.actualQueueName)
	switch resolveOutcome(processErr, bc.config.EnableRetryMechanism, deaths, bc.config.MaxRetries) {
	case outcomeAck:
		_ = delivery.Ack(false)
	case outcomeDrop:
		_ = delivery.Nack(false, false)
	case outcomeRetry:
		bc.Logger.Info("Retrying message", "delivery_tag", delivery.DeliveryTag, "death_count", deaths)
		_ = delivery.Nack(false, false)
	case outcomeDeadLetter:
		err := bc.finalDlxPublisher.Publish(context.Background(), bc.config.FinalDLQRoutingKey, amqp.Publishing{
			ContentType:  delivery.ContentType,
			Body:         delivery.Body,
			Headers:      delivery.Headers,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		})
		if err != nil {
			bc.Logger.Error(err, "Failed to publish to final DLX, message goes back to the retry loop", "delivery_tag", delivery.DeliveryTag)
			_ = delivery.Nack(false, false)
			return
		}
		bc.Logger.Warn("Max retries reached, message moved to final DLQ", "delivery_tag", delivery.DeliveryTag)
		_ = delivery.Ack(false)
	}
}

// Close дожидается обработчиков и закрывает канал
func (c *DistributingConsumer) Close() error {
	return c.baseConsumer.Close()
}
