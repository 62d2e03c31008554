package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hoplink/hoplink/internal/apperr"
)

// Call performs one request/reply exchange over the broker: it declares an
// exclusive server-named reply queue, publishes the payload with a fresh
// correlation ID, and waits for the matching reply. The reply queue is
// auto-deleted when the consumer is released, on every exit path.
//
// The channel mutex is held only for the declare, consume and publish calls.
// The wait for the reply runs unlocked; concurrent calls and click-event
// publishes proceed while one caller waits.
func (b *Broker) Call(ctx context.Context, queue string, payload any, timeout time.Duration) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.ErrQueue.Wrap(err).WithContext("queue", queue)
	}

	correlationID := uuid.NewString()

	b.mu.Lock()

	replyQueue, err := b.channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		b.mu.Unlock()
		return nil, apperr.ErrQueue.Wrap(err).
			WithContext("queue", queue).
			WithContext("operation", "declare reply queue")
	}

	// The correlation ID doubles as the consumer tag so the reply consumer
	// can be cancelled on every exit path, releasing the auto-delete queue.
	deliveries, err := b.channel.Consume(
		replyQueue.Name,
		correlationID, // consumer tag
		true,          // autoAck
		true,          // exclusive
		false,         // noLocal
		false,         // noWait
		nil,
	)
	if err != nil {
		b.mu.Unlock()
		return nil, apperr.ErrQueue.Wrap(err).
			WithContext("queue", queue).
			WithContext("operation", "consume reply queue")
	}

	err = b.channel.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: correlationID,
			ReplyTo:       replyQueue.Name,
			DeliveryMode:  amqp.Transient,
			Body:          body,
		},
	)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.channel != nil {
			b.channel.Cancel(correlationID, false)
		}
	}()

	if err != nil {
		return nil, apperr.ErrQueue.Wrap(err).
			WithContext("queue", queue).
			WithContext("operation", "publish request")
	}

	select {
	case delivery, ok := <-deliveries:
		if !ok {
			return nil, apperr.ErrQueue.
				WithContext("queue", queue).
				WithContext("reason", "reply channel closed")
		}
		if delivery.CorrelationId != correlationID {
			return nil, apperr.ErrQueue.
				WithContext("queue", queue).
				WithContext("reason", "correlation id mismatch")
		}
		return delivery.Body, nil

	case <-time.After(timeout):
		return nil, apperr.ErrRequestTimeout.
			WithContext("queue", queue).
			WithContext("timeout", timeout.String())

	case <-ctx.Done():
		return nil, apperr.ErrRequestTimeout.Wrap(ctx.Err()).
			WithContext("queue", queue)
	}
}
