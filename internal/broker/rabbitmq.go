// Package broker wraps the AMQP connection used for click-event publishing
// and request/reply calls to the analytics worker.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is the subset of *amqp.Channel the broker uses.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Broker owns one AMQP connection and one channel. Channel operations are
// serialized by a mutex; AMQP channels are not safe for concurrent use. The
// mutex covers individual channel calls only, never a wait for a reply.
type Broker struct {
	conn    *amqp.Connection
	channel amqpChannel
	logger  *slog.Logger

	mu sync.Mutex
}

// Connect dials the AMQP server and opens a channel.
func Connect(url string, logger *slog.Logger) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open broker channel: %w", err)
	}

	return &Broker{
		conn:    conn,
		channel: ch,
		logger:  logger.With("component", "broker"),
	}, nil
}

// DeclareQueues declares the durable work queues both services depend on.
// Declaration failure means the broker topology is wrong; callers treat it
// as fatal at startup.
func (b *Broker) DeclareQueues(names ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, name := range names {
		if _, err := b.channel.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,
		); err != nil {
			return fmt.Errorf("failed to declare queue %q: %w", name, err)
		}
		b.logger.Debug("queue declared", "queue", name)
	}

	return nil
}

// CloseChannel closes the channel, leaving the connection open.
func (b *Broker) CloseChannel() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.channel == nil {
		return nil
	}
	err := b.channel.Close()
	b.channel = nil
	return err
}

// Close closes the underlying connection. Call CloseChannel first during an
// ordered shutdown.
func (b *Broker) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
