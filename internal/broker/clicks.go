package broker

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hoplink/hoplink/internal/apperr"
)

// PublishClickEvent fires one click event at the analytics queue. Persistent
// delivery; no reply is expected.
func (b *Broker) PublishClickEvent(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return apperr.ErrQueue.Wrap(err).WithContext("queue", queue)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.channel.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return apperr.ErrQueue.Wrap(err).
			WithContext("queue", queue).
			WithContext("operation", "publish click event")
	}

	return nil
}
